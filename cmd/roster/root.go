package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/storage"
)

// shutdownTimeout bounds how long exit waits for a running operation.
const shutdownTimeout = 30 * time.Second

// app carries the state shared by every command of one invocation.
// svc is opened lazily by the root PersistentPreRunE unless already set.
type app struct {
	cfg *config.Config
	svc *core.Service

	// Persistent flag overrides
	backend string
	dir     string
	verbose bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "roster",
		Short: "Phone-number roster: bulk import, export and assignment",
		Long: `roster keeps a roster of phone numbers and the people or teams they
are assigned to.

Numbers are imported from pasted comma-separated text (phone,name,age[,note]),
exported in full, by id range or as a random sample of unassigned numbers,
and optionally assigned to a person during export. Every change is saved to
the configured storage backend and recorded in the audit log.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: file, sqlite, postgres, redis, memory (overrides STORE_BACKEND)")
	root.PersistentFlags().StringVar(&a.dir, "dir", "", "data directory of the file backend (overrides STORE_DIR)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newSampleCmd(a),
		newNumberCmd(a),
		newPersonCmd(a),
		newLogsCmd(a),
		newStatsCmd(a),
	)
	return root
}

// open loads configuration, sets up logging and loads the store.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	if a.svc != nil {
		return nil
	}

	if a.backend != "" {
		os.Setenv("STORE_BACKEND", a.backend)
	}
	if a.dir != "" {
		os.Setenv("STORE_DIR", a.dir)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx := cmd.Context()
	blobs, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}

	store := core.NewStore(blobs)
	if report := store.Load(ctx); len(report.Reset) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: unreadable data reset to empty: %v\n", report.Reset)
	}

	a.cfg = cfg
	a.svc = core.NewService(store, serviceOptions(cfg))
	return nil
}

// serviceOptions maps configuration onto engine options.
func serviceOptions(cfg *config.Config) core.Options {
	opts := core.Options{
		MaxWait:        cfg.Engine.MaxWait,
		RejectWhenBusy: cfg.Engine.RejectWhenBusy,
		TimeLayout:     cfg.Engine.TimeLayout,
		DefaultSource:  cfg.Engine.DefaultSource,
		ImportEncoding: cfg.Import.Encoding,
		MaxImportBytes: cfg.Import.MaxBytes,
	}
	if cfg.Engine.RandomSeed != 0 {
		opts.Sampler = core.NewSeededSampler(uint64(cfg.Engine.RandomSeed))
	}
	return opts
}

// shutdown waits for a running operation and closes the storage backend.
func (a *app) shutdown() error {
	if a.svc == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if status := a.svc.Gate().Status(); status.Active {
		slog.Info("waiting for operation to complete", "held", status.Held)
		if err := a.svc.Gate().WaitForIdle(ctx); err != nil {
			slog.Warn("operation did not complete in time", "error", err)
		}
	}

	err := a.svc.Store().Close()
	a.svc = nil
	return err
}
