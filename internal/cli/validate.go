package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/value"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Stores []string          `json:"stores"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one problem with a definition.
type ValidationError struct {
	Code    string `json:"code"`
	Store   string `json:"store,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-path>...",
		Short: "Validate store definitions",
		Long: `Validate store-definition files without creating any store.

Each path is a .json, .yaml, .yml or .cue file, or a directory that is
searched for them. Every definition must compile and store names must be
unique across all files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	for _, p := range paths {
		files, err := schema.FindSchemaFiles(p)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		formatter.VerboseLog("Found %d definition file(s) in %s", len(files), p)
	}

	defs, err := schema.LoadPaths(paths...)
	if err != nil {
		return formatter.Fail(ExitFailure, string(value.CodeInvalidSchema), err)
	}

	result := ValidationResult{Valid: true, Stores: []string{}}
	for _, d := range defs {
		formatter.VerboseLog("Validating store: %s", d.Name)
		result.Stores = append(result.Stores, d.Name)
	}
	for _, err := range schema.Validate(defs) {
		result.Valid = false
		result.Errors = append(result.Errors, toValidationError(err))
	}
	if len(defs) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    string(value.CodeInvalidSchema),
			Message: "no store definitions found",
		})
	}

	if err := formatter.Result(result, func(w io.Writer) error {
		return writeValidationText(w, result)
	}); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
	}
	return nil
}

func toValidationError(err error) ValidationError {
	if e, ok := err.(*value.Error); ok {
		return ValidationError{Code: string(e.Code), Store: e.Store, Field: e.Field, Message: e.Message}
	}
	return ValidationError{Code: string(value.CodeInvalidSchema), Message: err.Error()}
}

func writeValidationText(w io.Writer, result ValidationResult) error {
	if result.Valid {
		_, err := fmt.Fprintf(w, "✓ %d store definition(s) valid\n", len(result.Stores))
		return err
	}
	fmt.Fprintf(w, "✗ Validation failed with %d error(s):\n", len(result.Errors))
	for _, e := range result.Errors {
		where := e.Store
		if e.Field != "" {
			where += "." + e.Field
		}
		if where != "" {
			fmt.Fprintf(w, "  [%s] %s: %s\n", e.Code, where, e.Message)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", e.Code, e.Message)
		}
	}
	return nil
}
