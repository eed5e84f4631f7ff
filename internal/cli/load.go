package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/journal"
	"github.com/roach88/recstore/internal/loader"
	"github.com/roach88/recstore/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DB      string   // journal path
	Schemas []string // definition files or directories
	Limit   int      // max records, <= 0 = unlimited
}

// LoadResult is the outcome of one load.
type LoadResult struct {
	Store      string              `json:"store"`
	File       string              `json:"file"`
	Loaded     int                 `json:"loaded"`
	Skipped    int                 `json:"skipped"`
	Records    int                 `json:"records"`
	Checkpoint *journal.Checkpoint `json:"checkpoint,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <store> <file>",
		Short: "Bulk-load a JSON-lines file into a store",
		Long: `Load one JSON object per line into a store.

Lines that fail to parse or validate are logged and skipped. Files ending
in .gz or .zst are decompressed on the fly.

With --db the journal's latest checkpoint is restored first and a new
checkpoint is written after the load. Stores named in --schema files that
the journal does not have yet are created.

Exit codes:
  0 - Load finished (skipped lines are not a failure)
  1 - The store does not exist
  2 - Command error (unreadable file, config or journal)

Examples:
  recstore load People people.jsonl --schema ./schemas
  recstore load People people.jsonl.gz --db recstore.db --limit 1000`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "journal database path (overrides config)")
	cmd.Flags().StringSliceVar(&opts.Schemas, "schema", nil, "store-definition file or directory (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many records (<= 0 = unlimited, overrides config)")

	return cmd
}

func runLoad(ctx context.Context, opts *LoadOptions, storeName, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	var (
		j    *journal.Journal
		base = store.NewBase()
	)
	if db := e.dbPath(cmd, opts.DB); db != "" {
		j, base, err = e.openJournal(ctx, db, true)
		if err != nil {
			return err
		}
		defer j.Close()
	}
	defer base.Close()

	if err := ensureStores(base, append(append([]string{}, e.cfg.Schemas...), opts.Schemas...)); err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	s, err := base.Store(storeName)
	if err != nil {
		return e.formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	limit := e.cfg.Loader.Limit
	if cmd.Flags().Changed("limit") {
		limit = opts.Limit
	}

	src, err := loader.OpenFile(path)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	defer src.Close()

	l := loader.New(loader.Options{
		Logger:       e.logger,
		ReclaimEvery: e.cfg.Loader.ReclaimEvery,
		ReportEvery:  e.cfg.Loader.ReportEvery,
	})
	res, err := l.Load(src, s, limit)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("%s: %w", path, err))
	}

	result := LoadResult{
		Store:   s.Name(),
		File:    src.Name(),
		Loaded:  res.Loaded,
		Skipped: res.Skipped,
		Records: s.Len(),
	}

	if j != nil {
		cp, err := j.Checkpoint(ctx, base)
		if err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		e.logger.Debug("checkpoint written", "id", cp.ID, "seq", cp.Seq, "records", cp.Records)
		result.Checkpoint = &cp
	}

	return e.formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Loaded %d record(s) into %s (%d skipped, %d total)\n",
			result.Loaded, result.Store, result.Skipped, result.Records)
		if result.Checkpoint != nil {
			fmt.Fprintf(w, "Checkpoint %s (seq %d)\n", result.Checkpoint.ID, result.Checkpoint.Seq)
		}
		return nil
	})
}
