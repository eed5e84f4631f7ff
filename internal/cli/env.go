package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/config"
	"github.com/roach88/recstore/internal/journal"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
)

// env is what every command needs after flag parsing.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	formatter *OutputFormatter
}

// newEnv loads the config and builds the logger and formatter. Logs go to
// stderr so they never mix with JSON output.
func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return &env{cfg: cfg, logger: logger, formatter: formatter}, nil
}

// dbPath returns the --db flag if it was set, else the configured database.
func (e *env) dbPath(cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("db") {
		return flag
	}
	return e.cfg.Database
}

// openJournal opens the journal at path and restores its latest image.
// A journal with no checkpoint yields an empty base when allowEmpty is set.
func (e *env) openJournal(ctx context.Context, path string, allowEmpty bool) (*journal.Journal, *store.Base, error) {
	j, err := journal.Open(path)
	if err != nil {
		return nil, nil, e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	base, err := j.Restore(ctx)
	switch {
	case errors.Is(err, journal.ErrNoCheckpoint) && allowEmpty:
		e.logger.Debug("journal has no checkpoint, starting empty", "db", path)
		return j, store.NewBase(), nil
	case errors.Is(err, journal.ErrNoCheckpoint):
		j.Close()
		return nil, nil, e.formatter.Fail(ExitCommandError, ErrCodeNoCheckpoint, fmt.Errorf("%s: %w", path, err))
	case err != nil:
		j.Close()
		return nil, nil, e.formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	e.logger.Debug("restored journal", "db", path, "stores", len(base.StoreNames()))
	return j, base, nil
}

// ensureStores creates the stores defined under paths that base does not
// have yet. A store that already exists must have the same definition.
func ensureStores(base *store.Base, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	defs, err := schema.LoadPaths(paths...)
	if err != nil {
		return err
	}

	for _, def := range defs {
		existing, err := base.Store(def.Name)
		if err != nil {
			if _, err := base.CreateStore(def); err != nil {
				return err
			}
			continue
		}
		compiled, err := def.Compile()
		if err != nil {
			return err
		}
		if !slices.Equal(existing.Schema().Defs(), compiled.Defs()) {
			return fmt.Errorf("store %s: definition differs from the existing store", def.Name)
		}
	}
	return nil
}
