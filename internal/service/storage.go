package service

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/config"
	"github.com/linnington/esheets-assets/internal/database"
	"github.com/linnington/esheets-assets/internal/repository"
	"github.com/linnington/esheets-assets/internal/storage"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStorage opens the storage backend named by cfg. SQL backends are
// migrated before use. The returned closer releases the backend.
func OpenStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StorageDriver {
	case "memory":
		return storage.NewMemory(), nopCloser{}, nil
	case "file":
		return storage.NewFile(cfg.StoragePath), nopCloser{}, nil
	case "sqlite", "postgres", "mysql":
		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Debug("database connection established", zap.String("type", db.Dialect.Name()))

		applied, err := db.RunMigrations()
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		for _, name := range applied {
			logger.Info("applied migration", zap.String("name", name))
		}
		return repository.NewStorageRepository(db, cfg.Origin), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}
