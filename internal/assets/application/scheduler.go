package application

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"

	"pipeline-dashboard/internal/observability/logging"
)

// Scheduler runs portfolio recalculation on a cron schedule.
type Scheduler struct {
	service  *Service
	schedule string
	logger   *logging.Logger
	cron     *cron.Cron
}

// NewScheduler validates the cron expression and constructs a Scheduler.
func NewScheduler(service *Service, schedule string, logger *logging.Logger) (*Scheduler, error) {
	if service == nil {
		return nil, errors.New("recalc scheduler: nil service")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, err
	}
	return &Scheduler{
		service:  service,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
	}, nil
}

// Start runs the schedule until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_, err := s.cron.AddFunc(s.schedule, func() { s.runOnce(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("recalculation scheduler started", "schedule", s.schedule)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.service.RecalculateAll(ctx, "scheduler")
	if err != nil {
		s.logger.Error("scheduled recalculation failed", "error", err)
		return
	}
	if len(report.Failed) > 0 {
		s.logger.Warn("scheduled recalculation had failures", "failed", len(report.Failed))
	}
}
