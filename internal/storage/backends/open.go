// Package backends selects and starts the configured storage.Port implementation.
package backends

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/config"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/internal/storage/api"
	"github.com/aura-webinar/workshops/internal/storage/memory"
	"github.com/aura-webinar/workshops/internal/storage/postgres"
	"github.com/aura-webinar/workshops/internal/storage/sqlite"
	"github.com/aura-webinar/workshops/pkg/database"
)

// Backend is an opened storage backend and its cleanup.
type Backend struct {
	Port  storage.Port
	Name  string
	close func()
}

// Close releases the backend's resources.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open starts the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres.DSN(), database.PoolOptions{
			MaxConns: int32(cfg.Postgres.MaxConns),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrNotInitialized, err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("%w: migrate: %w", storage.ErrNotInitialized, err)
			}
		}
		return &Backend{Port: postgres.NewRepository(pool), Name: cfg.Backend, close: pool.Close}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrNotInitialized, err)
		}
		logger.Info("SQLite database opened", zap.String("path", cfg.SQLite.Path))
		return &Backend{Port: db, Name: cfg.Backend, close: func() { _ = db.Close() }}, nil

	case config.BackendAPI:
		client, err := api.New(api.Config{
			BaseURL: cfg.API.BaseURL,
			APIKey:  cfg.API.APIKey,
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("registration API backend configured", zap.String("base_url", cfg.API.BaseURL))
		return &Backend{Port: client, Name: cfg.Backend}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory registration storage; data is lost on restart")
		return &Backend{Port: memory.New(), Name: cfg.Backend}, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", storage.ErrNotInitialized, cfg.Backend)
}
