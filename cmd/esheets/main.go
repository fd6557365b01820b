// Command esheets inspects and edits worksheet progress and learner
// identity kept by the esheets engine, and can follow a score on a page.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/codec"
	"github.com/linnington/esheets-assets/internal/config"
	"github.com/linnington/esheets-assets/internal/logging"
	"github.com/linnington/esheets-assets/internal/service"
	"github.com/linnington/esheets-assets/internal/storage"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	logger  *zap.Logger
	storage storage.Storage
	closer  io.Closer
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	store, closer, err := service.OpenStorage(cfg, logger)
	if err != nil {
		return err
	}
	logger.Debug("storage opened", zap.String("driver", cfg.StorageDriver), zap.String("origin", cfg.Origin))

	a.cfg = cfg
	a.logger = logger
	a.storage = store
	a.closer = closer
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn("failed to close storage", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) entries() (codec.Entry, codec.Entry) {
	return codec.Entry{Key: a.cfg.ProgressKey, LegacyKey: a.cfg.LegacyProgressKey},
		codec.Entry{Key: a.cfg.IdentityKey, LegacyKey: a.cfg.LegacyIdentityKey}
}

// session builds a Session over the opened storage. Commits are logged and,
// when a track log is configured, appended to it.
func (a *app) session() *service.Session {
	trackers := service.MultiTracker{service.NewLogTracker(a.logger)}
	if a.cfg.TrackLogPath != "" {
		trackers = append(trackers, service.NewJSONLTracker(a.cfg.TrackLogPath))
	}
	return service.NewSession(a.storage,
		service.WithConfig(a.cfg),
		service.WithLogger(a.logger),
		service.WithTracker(trackers))
}

func (a *app) backup() *service.BackupService {
	progressEntry, identityEntry := a.entries()
	return service.NewBackupService(a.storage, a.cfg.Origin, progressEntry, identityEntry, a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "esheets",
		Short: "Worksheet progress and learner identity tool",
		Long: `esheets reads and writes the progress table and learner identity that
worksheet pages keep in local storage, using the same merge rules the pages do.

Storage is chosen with ESHEETS_STORAGE (memory, file, sqlite, postgres, mysql).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config overlay")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newProgressCmd(a))
	root.AddCommand(newIdentityCmd(a))
	root.AddCommand(newClassCodeCmd())
	root.AddCommand(newDiscoverCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newReportCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
