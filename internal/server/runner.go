// Package server runs the background sync daemon components.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/shelfsync/internal/events"
	"github.com/vmunix/shelfsync/internal/settings"
	"github.com/vmunix/shelfsync/internal/syncer"
)

// Config for the daemon.
type Config struct {
	Scheduler       SchedulerConfig
	AutoSync        settings.AutoSyncMode
	EventRetention  time.Duration
	PruneInterval   time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultEventRetention  = 30 * 24 * time.Hour
	defaultPruneInterval   = time.Hour
	defaultShutdownTimeout = 2 * time.Minute
)

// Runner manages the daemon components.
type Runner struct {
	sync   *syncer.Runner
	bus    *events.Bus
	log    *events.EventLog
	config Config
	logger *slog.Logger
}

// NewRunner creates a new runner. bus and eventLog may be nil.
func NewRunner(sync *syncer.Runner, bus *events.Bus, eventLog *events.EventLog, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventRetention == 0 {
		cfg.EventRetention = defaultEventRetention
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = defaultPruneInterval
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.AutoSync == "" {
		cfg.AutoSync = settings.AutoSyncOnStart
	}
	return &Runner{
		sync:   sync,
		bus:    bus,
		log:    eventLog,
		config: cfg,
		logger: logger,
	}
}

// Run starts the scheduler, the startup sync, event logging and pruning.
// It blocks until ctx is cancelled or a component fails. In OnClose mode a
// final sync runs after the components have stopped.
func (r *Runner) Run(ctx context.Context) error {
	sched, err := NewScheduler(
		syncer.NewWorker(r.sync, syncer.TriggerSchedule, r.logger),
		r.config.Scheduler,
		r.logger,
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if r.bus != nil {
		ch := r.bus.SubscribeAll(64)
		g.Go(func() error {
			defer r.bus.Unsubscribe(ch)
			r.logEvents(gctx, ch)
			return nil
		})
	}

	g.Go(func() error { return sched.Run(gctx) })

	if r.log != nil {
		g.Go(func() error {
			r.prune(gctx)
			return nil
		})
	}

	if r.config.AutoSync == settings.AutoSyncOnStart {
		g.Go(func() error {
			out := sched.Attempt(gctx, syncer.NewWorker(r.sync, syncer.TriggerStartup, r.logger))
			r.logger.Info("startup sync finished", "outcome", out)
			return nil
		})
	}

	err = g.Wait()
	r.sync.Cancel()
	r.sync.Wait()

	if r.config.AutoSync == settings.AutoSyncOnClose {
		r.closingSync(sched)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) closingSync(sched *Scheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
	defer cancel()

	r.logger.Info("running shutdown sync", "timeout", r.config.ShutdownTimeout)
	w := syncer.NewWorker(r.sync, syncer.TriggerShutdown, r.logger)
	out := w.Work(ctx, sched.scope)
	r.logger.Info("shutdown sync finished", "outcome", out)
}

func (r *Runner) logEvents(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case *events.SyncStarted:
				r.logger.Info("sync started", "run_id", ev.EntityID(), "mode", ev.Mode, "scope", ev.Scope, "trigger", ev.Trigger)
			case *events.SyncCompleted:
				r.logger.Info("sync completed", "run_id", ev.EntityID(), "movies", ev.Movies, "series", ev.Series, "duration_ms", ev.DurationMS)
			case *events.SyncFailed:
				r.logger.Warn("sync failed", "run_id", ev.EntityID(), "error", ev.Message, "retryable", ev.Retryable)
			case *events.SyncCancelled:
				r.logger.Info("sync cancelled", "run_id", ev.EntityID())
			case *events.SyncProgressed:
				r.logger.Debug("sync progress", "run_id", ev.EntityID(), "phase", ev.Phase, "processed", ev.Processed, "total", ev.Total)
			}
		}
	}
}

func (r *Runner) prune(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.log.Prune(r.config.EventRetention)
			if err != nil {
				r.logger.Warn("prune events failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("pruned events", "count", n)
			}
		}
	}
}
