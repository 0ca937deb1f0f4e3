package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/pokerscribe/internal/logging"
)

// IndexMaintainer is implemented by repositories with time-rotated indices
type IndexMaintainer interface {
	RotateIndices(ctx context.Context) error
	PruneOldIndices(ctx context.Context) error
}

// IndexMaintenanceScheduler rotates and prunes search indices
type IndexMaintenanceScheduler struct {
	scheduler *Scheduler
	repo      IndexMaintainer
	logger    *logging.Logger
}

// NewIndexMaintenanceScheduler schedules rotation at rotationInterval and
// pruning weekly. A non-positive rotationInterval defaults to daily.
func NewIndexMaintenanceScheduler(repo IndexMaintainer, rotationInterval time.Duration, logger *logging.Logger) *IndexMaintenanceScheduler {
	if logger == nil {
		logger = logging.Default
	}
	if rotationInterval <= 0 {
		rotationInterval = 24 * time.Hour
	}

	s := &IndexMaintenanceScheduler{
		scheduler: NewScheduler(logger),
		repo:      repo,
		logger:    logger,
	}
	s.scheduler.AddTask("index_rotation", rotationInterval, s.rotateIndices)
	s.scheduler.AddTask("index_pruning", 7*24*time.Hour, s.pruneOldIndices)
	return s
}

// Start starts the maintenance tasks
func (s *IndexMaintenanceScheduler) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
	s.logger.Info("Index maintenance scheduler started")
}

// Stop stops the maintenance tasks
func (s *IndexMaintenanceScheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Index maintenance scheduler stopped")
}

func (s *IndexMaintenanceScheduler) rotateIndices(ctx context.Context) error {
	s.logger.Info("Running scheduled index rotation task")
	return s.repo.RotateIndices(ctx)
}

func (s *IndexMaintenanceScheduler) pruneOldIndices(ctx context.Context) error {
	s.logger.Info("Running scheduled index pruning task")
	return s.repo.PruneOldIndices(ctx)
}
