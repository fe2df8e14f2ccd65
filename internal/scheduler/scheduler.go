// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"budgetwise/internal/log"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler manages background jobs
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
}

// New creates a scheduler accepting standard five-field specs and
// descriptors such as "@daily". Each run is bounded by timeout.
func New(logger *log.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.WithComponent(log.ComponentScheduler),
		timeout: timeout,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", log.FieldCount, len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
}

// AddJob registers job under a cron schedule.
// Schedule examples:
//   - "0 3 * * *"   - 3 AM every day
//   - "@weekly"     - midnight between Saturday and Sunday
//   - "@every 30m"  - every 30 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.RunNow(context.Background(), job)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Job registered", "schedule", schedule, log.FieldJob, job.Name)
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.DebugContext(ctx, "Running job", log.FieldJob, job.Name)
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Job failed", log.FieldJob, job.Name, log.FieldError, err)
		return err
	}
	s.logger.DebugContext(ctx, "Job completed", log.FieldJob, job.Name, log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
