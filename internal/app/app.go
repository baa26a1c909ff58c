package app

import (
	"context"
	"fmt"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/games/roulette"
	"github.com/fadedpez/reverseroulette/pkg/repositories/game"
	"github.com/fadedpez/reverseroulette/pkg/scheduler"
	"github.com/fadedpez/reverseroulette/pkg/services/statistics"
	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/fadedpez/reverseroulette/pkg/storage/backend"
)

// App holds the client's dependencies
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Store   storage.BlobStore
	History game.Repository
	Stats   *statistics.Service
	Factory *roulette.Factory

	maintenance *scheduler.ElasticsearchMaintenanceScheduler
	cancel      context.CancelFunc
}

// New opens the blob store and the game history selected by cfg
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default
	}

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s blob store: %w", cfg.BlobBackend, err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.History = a.openHistory(ctx)
	a.Stats = statistics.NewService(a.History)
	a.Factory = roulette.NewFactory(cfg, store, a.Stats, logger)

	return a, nil
}

// openHistory picks the history repository. A sqlite failure falls back to
// memory, and a cluster that cannot be reached leaves indexing off.
func (a *App) openHistory(ctx context.Context) game.Repository {
	var repo game.Repository = game.NewMemoryRepository()

	if a.Config.HistoryBackend == config.BackendSQLite {
		dbPath := a.Config.HistoryDBPath()
		sqliteRepo, err := game.NewSQLiteRepository(ctx, dbPath, a.Logger)
		if err != nil {
			a.Logger.Warn("Failed to initialize SQLite history at %s: %v", dbPath, err)
			a.Logger.Warn("Falling back to in-memory history")
		} else {
			repo = sqliteRepo
			a.Logger.Info("Recording game history in %s", dbPath)
		}
	} else {
		a.Logger.Debug("Using in-memory game history (lost on exit)")
	}

	if a.Config.ElasticsearchURL == "" {
		return repo
	}

	esConfig := game.DefaultElasticsearchConfig()
	esConfig.URL = a.Config.ElasticsearchURL
	esConfig.Username = a.Config.ElasticsearchUsername
	esConfig.Password = a.Config.ElasticsearchPassword
	esConfig.IndexPrefix = a.Config.ElasticsearchIndexBase

	esRepo, err := game.NewElasticsearchRepository(ctx, repo, esConfig, a.Logger)
	if err != nil {
		a.Logger.Warn("Elasticsearch indexing disabled: %v", err)
		return repo
	}

	a.maintenance = scheduler.NewElasticsearchMaintenanceScheduler(esRepo, a.Logger)
	a.maintenance.Start(ctx)
	a.Logger.Info("Indexing finished games into %s", esRepo.CurrentIndex())
	return esRepo
}

// Shutdown stops background maintenance and closes every store
func (a *App) Shutdown() {
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	a.cancel()

	if err := a.History.Close(); err != nil {
		a.Logger.Warn("Error closing game history: %v", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Error closing blob store: %v", err)
	}
}
