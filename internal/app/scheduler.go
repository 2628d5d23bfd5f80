package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/secinv/ghsync/pkg/logger"
)

// Scheduler triggers full sync passes on a cron schedule.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	schedule     string
	logger       *logger.Logger
}

// NewScheduler creates a new Scheduler. The schedule is a standard
// five-field cron expression.
func NewScheduler(orchestrator *Orchestrator, schedule string, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		schedule:     schedule,
		logger:       log.With("service", "scheduler"),
	}
}

// Start registers the sync job and starts the cron loop. Overlapping runs
// are handled downstream: the orchestrator skips integrations already in
// flight.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.logger.Info("scheduled sync starting", "schedule", s.schedule)
		if err := s.orchestrator.SyncAll(ctx); err != nil {
			s.logger.WithError(err).Error("scheduled sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
