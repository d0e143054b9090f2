package docstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/reshetovitsme/askanon/internal/shared/config"
	"github.com/samber/oops"
)

// Open builds the Store selected by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverFile:
		slog.Info("Using file document store", "storage_path", cfg.StoragePath)
		return NewFileStorage(cfg.StoragePath)
	case config.StorageDriverSqlite:
		slog.Info("Using sqlite document store", "sqlite_path", cfg.SQLitePath)
		return NewSQLiteStorage(cfg.SQLitePath)
	case config.StorageDriverPostgres:
		slog.Info("Using postgres document store")
		return NewPostgresStorage(ctx, cfg.DatabaseURL, PoolConfig{
			MaxConns:        cfg.DatabaseMaxConns,
			MaxConnLifetime: 30 * time.Minute,
		})
	default:
		return nil, oops.With("storage_driver", cfg.StorageDriver).Wrap(config.ErrInvalidStorageDriver)
	}
}
