package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "calview/internal/log"
)

// Refresher is a job run on every tick, typically the ICS store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs a Refresher on a cron schedule. A tick that fires while the
// previous refresh is still running is skipped.
type Scheduler struct {
	spec string
	job  Refresher
	cron *cron.Cron
}

// New validates spec (standard 5-field cron or a descriptor such as
// "@every 5m") and prepares a scheduler for job.
func New(spec string, job Refresher) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron %q: %w", spec, err)
	}
	logger := cronLogger{}
	return &Scheduler{
		spec: spec,
		job:  job,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Start registers the job and starts ticking. ctx is handed to every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}
	s.cron.Start()
	appLog.Info("scheduler started", "spec", s.spec)
	return nil
}

// RunNow refreshes once, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.job.Refresh(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job.Refresh(ctx); err != nil {
		appLog.Error("scheduled refresh failed", err, "spec", s.spec)
	}
}

// Stop stops ticking and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		appLog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes robfig/cron's logging through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
