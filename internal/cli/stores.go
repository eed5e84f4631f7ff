package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/journal"
	"github.com/roach88/recstore/internal/schema"
)

// StoresOptions holds flags for the stores command.
type StoresOptions struct {
	*RootOptions
	DB      string
	History bool
}

// StoreInfo describes one restored store.
type StoreInfo struct {
	Name    string            `json:"name"`
	Records int               `json:"records"`
	Fields  []schema.FieldDef `json:"fields"`
}

// StoresResult lists the stores of the latest checkpoint.
type StoresResult struct {
	Checkpoint journal.Checkpoint   `json:"checkpoint"`
	Stores     []StoreInfo          `json:"stores"`
	History    []journal.Checkpoint `json:"history,omitempty"`
}

// NewStoresCommand creates the stores command.
func NewStoresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoresOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List the stores of the latest checkpoint",
		Long: `List every store in the journal's latest checkpoint with its record
count and field declarations. --history also lists earlier checkpoints.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStores(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "journal database path (overrides config)")
	cmd.Flags().BoolVar(&opts.History, "history", false, "list every checkpoint")

	return cmd
}

func runStores(ctx context.Context, opts *StoresOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	db := e.dbPath(cmd, opts.DB)
	if db == "" {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("no database: set --db or database in the config"))
	}
	j, base, err := e.openJournal(ctx, db, false)
	if err != nil {
		return err
	}
	defer j.Close()
	defer base.Close()

	var result StoresResult
	if result.Checkpoint, err = j.LatestCheckpoint(ctx); err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if opts.History {
		if result.History, err = j.Checkpoints(ctx); err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
	}
	result.Stores = []StoreInfo{}
	for _, s := range base.Stores() {
		result.Stores = append(result.Stores, StoreInfo{
			Name:    s.Name(),
			Records: s.Len(),
			Fields:  s.Def().Fields,
		})
	}

	return e.formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Checkpoint %s (seq %d)\n", result.Checkpoint.ID, result.Checkpoint.Seq)
		for _, s := range result.Stores {
			fmt.Fprintf(w, "%s\t%d record(s)\t%d field(s)\n", s.Name, s.Records, len(s.Fields))
			if opts.Verbose {
				for _, f := range s.Fields {
					null := ""
					if f.Null {
						null = " null"
					}
					fmt.Fprintf(w, "  %s %s%s\n", f.Name, f.Type, null)
				}
			}
		}
		for _, cp := range result.History {
			fmt.Fprintf(w, "history: seq %d %s (%d stores, %d records)\n", cp.Seq, cp.ID, cp.Stores, cp.Records)
		}
		return nil
	})
}
