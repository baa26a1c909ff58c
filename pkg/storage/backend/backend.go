// Package backend opens the BlobStore selected by configuration
package backend

import (
	"context"
	"fmt"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/fadedpez/reverseroulette/pkg/storage/file"
	"github.com/fadedpez/reverseroulette/pkg/storage/httpblob"
	"github.com/fadedpez/reverseroulette/pkg/storage/memory"
	"github.com/fadedpez/reverseroulette/pkg/storage/redis"
	"github.com/fadedpez/reverseroulette/pkg/storage/sqlite"
)

// Open returns the blob store named by cfg.BlobBackend
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (storage.BlobStore, error) {
	if logger == nil {
		logger = logging.Default
	}

	switch cfg.BlobBackend {
	case config.BackendHTTP:
		return httpblob.NewClient(cfg.BlobStoreURL, cfg.HTTPTimeout), nil
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		store, err := file.New(&storage.Options{
			Path:        cfg.BlobFilePath(),
			MaxBlobAge:  cfg.BlobMaxAge,
			AutoCleanup: cfg.BlobMaxAge > 0,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.BlobMaxAge,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.New(ctx, cfg.BlobDBPath(), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
