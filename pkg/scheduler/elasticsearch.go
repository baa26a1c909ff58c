package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
)

// IndexMaintainer is the part of the Elasticsearch history repository the
// maintenance tasks drive
type IndexMaintainer interface {
	RotateIndices(ctx context.Context) error
	PruneOldIndices(ctx context.Context) error
	RotationPeriod() time.Duration
}

// DefaultPruneInterval is how often expired history indices are removed
const DefaultPruneInterval = 24 * time.Hour

// ElasticsearchMaintenanceScheduler manages scheduled maintenance tasks for
// the game history indices
type ElasticsearchMaintenanceScheduler struct {
	scheduler     *Scheduler
	repo          IndexMaintainer
	pruneInterval time.Duration
	logger        *logging.Logger
}

// NewElasticsearchMaintenanceScheduler creates a new scheduler for Elasticsearch maintenance tasks
func NewElasticsearchMaintenanceScheduler(repo IndexMaintainer, logger *logging.Logger) *ElasticsearchMaintenanceScheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &ElasticsearchMaintenanceScheduler{
		scheduler:     NewScheduler(logger),
		repo:          repo,
		pruneInterval: DefaultPruneInterval,
		logger:        logger.Named("es-maintenance"),
	}
}

// Start initializes and starts the maintenance scheduler
func (s *ElasticsearchMaintenanceScheduler) Start(ctx context.Context) {
	// Rotation is checked more often than it happens so a new month's
	// index exists before the first game of the month lands
	rotationInterval := s.repo.RotationPeriod()
	if rotationInterval <= 0 || rotationInterval > 24*time.Hour {
		rotationInterval = 24 * time.Hour
	}
	s.scheduler.AddTask("index_rotation", rotationInterval, s.rotateIndices)
	s.scheduler.AddTask("index_pruning", s.pruneInterval, s.pruneOldIndices)

	s.scheduler.Start(ctx)
	s.logger.Info("Elasticsearch maintenance scheduler started")
}

// Stop stops the maintenance scheduler
func (s *ElasticsearchMaintenanceScheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Elasticsearch maintenance scheduler stopped")
}

func (s *ElasticsearchMaintenanceScheduler) rotateIndices(ctx context.Context) error {
	s.logger.Debug("Running scheduled index rotation task")
	return s.repo.RotateIndices(ctx)
}

func (s *ElasticsearchMaintenanceScheduler) pruneOldIndices(ctx context.Context) error {
	s.logger.Debug("Running scheduled index pruning task")
	return s.repo.PruneOldIndices(ctx)
}
