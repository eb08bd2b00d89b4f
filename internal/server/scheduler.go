package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/syncer"
)

// Worker runs one background sync.
type Worker interface {
	Work(ctx context.Context, scope library.Scope) syncer.Outcome
}

// SchedulerConfig controls when and how persistently background syncs run.
type SchedulerConfig struct {
	Schedule      string
	Scope         library.Scope
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Scheduler fires the worker on a cron schedule and retries network failures
// with exponential backoff.
type Scheduler struct {
	worker   Worker
	schedule cron.Schedule
	spec     string
	scope    library.Scope
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

// NewScheduler parses cfg.Schedule and creates a scheduler.
func NewScheduler(w Worker, cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}
	scope := cfg.Scope
	if scope == "" {
		scope = library.ScopeAll
	}
	return &Scheduler{
		worker:   w,
		schedule: sched,
		spec:     cfg.Schedule,
		scope:    scope,
		attempts: max(cfg.RetryAttempts, 0),
		backoff:  cfg.RetryBackoff,
		log:      logger.With("component", "scheduler"),
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run fires the worker on schedule until ctx is cancelled. A tick that lands
// while the previous one is still running is skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		out := s.Attempt(ctx, s.worker)
		s.log.Info("scheduled sync finished", "outcome", out)
	}))

	s.log.Info("scheduler started", "schedule", s.spec, "scope", s.scope, "next", s.Next(time.Now()).Format(time.RFC3339))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// Attempt runs w, retrying OutcomeRetry up to the configured number of times.
// The delay doubles after every retry. The last outcome is returned.
func (s *Scheduler) Attempt(ctx context.Context, w Worker) syncer.Outcome {
	delay := s.backoff
	out := w.Work(ctx, s.scope)
	for retry := 1; out == syncer.OutcomeRetry && retry <= s.attempts; retry++ {
		s.log.Info("retrying sync", "attempt", retry, "of", s.attempts, "delay", delay)
		if err := sleep(ctx, delay); err != nil {
			return out
		}
		out = w.Work(ctx, s.scope)
		delay *= 2
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
