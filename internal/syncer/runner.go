package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/shelfsync/internal/events"
	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/session"
	"github.com/vmunix/shelfsync/internal/settings"
)

// CancelAdvisory is shown after a user cancels a run.
const CancelAdvisory = "Sync cancelled: partial sync only"

const defaultAdvisoryTTL = 6 * time.Second

// Trigger records what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
	TriggerShutdown Trigger = "shutdown"
)

// Request describes a sync to run.
type Request struct {
	Mode            Mode
	Scope           library.Scope
	Trigger         Trigger
	ForceFullMovies bool
}

// ManualRequest builds a user-initiated request. Manual incremental runs
// ignore the watermark for movies.
func ManualRequest(mode Mode, scope library.Scope) Request {
	return Request{
		Mode:            mode,
		Scope:           scope,
		Trigger:         TriggerManual,
		ForceFullMovies: scope.IncludesMovies(),
	}
}

// Syncer runs the sync strategies.
type Syncer interface {
	Incremental(ctx context.Context, scope library.Scope, forceFullMovies bool, report Reporter) Result
	Fast(ctx context.Context, scope library.Scope, report Reporter) Result
	DetailsOnly(ctx context.Context, scope library.Scope, report Reporter) Result
}

// StatusChecker probes the server before a run.
type StatusChecker interface {
	CheckServerStatus(ctx context.Context) session.ConnectionResult
}

// Status is a snapshot of the runner.
type Status struct {
	Running   bool
	RunID     int64
	Mode      Mode
	Scope     library.Scope
	Phase     Phase
	Processed int
	Total     int
	StartedAt time.Time
	LastError string
	LastSync  time.Time
}

// Run is a handle on one started sync.
type Run struct {
	ID      int64
	Request Request

	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its result.
func (r *Run) Wait() Result {
	<-r.done
	return r.result
}

// Runner allows one sync at a time. Starting a run supersedes the one in
// flight.
type Runner struct {
	syncer   Syncer
	checker  StatusChecker
	bus      *events.Bus
	settings *settings.Store
	log      *slog.Logger

	advisoryTTL time.Duration

	startMu  sync.Mutex // serializes Start
	mu       sync.Mutex
	nextID   int64
	current  *Run
	status   Status
	advisory *time.Timer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithAdvisoryTTL sets how long the cancel advisory stays up.
func WithAdvisoryTTL(d time.Duration) RunnerOption {
	return func(r *Runner) { r.advisoryTTL = d }
}

// WithFirstRunID sets the id given to the next run.
func WithFirstRunID(id int64) RunnerOption {
	return func(r *Runner) { r.nextID = id }
}

// NewRunner creates a runner. bus may be nil.
func NewRunner(s Syncer, checker StatusChecker, bus *events.Bus, st *settings.Store, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		syncer:      s,
		checker:     checker,
		bus:         bus,
		settings:    st,
		log:         logger.With("component", "runner"),
		advisoryTTL: defaultAdvisoryTTL,
		nextID:      1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start cancels any run in flight, waits for it to unwind, then starts req.
func (r *Runner) Start(ctx context.Context, req Request) *Run {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.mu.Lock()
	prev := r.current
	r.mu.Unlock()
	if prev != nil {
		r.log.Info("superseding sync", "run_id", prev.ID)
		prev.cancel()
		<-prev.done
	}

	if req.Mode == "" {
		req.Mode = ModeIncremental
	}
	if req.Scope == "" {
		req.Scope = library.ScopeAll
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	run := &Run{
		ID:      r.nextID,
		Request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.nextID++
	r.current = run
	r.stopAdvisory()
	r.status = Status{
		Running:   true,
		RunID:     run.ID,
		Mode:      req.Mode,
		Scope:     req.Scope,
		StartedAt: time.Now(),
	}
	r.mu.Unlock()

	go r.execute(runCtx, run)
	return run
}

// Cancel stops the run in flight and raises the partial-sync advisory.
// It reports whether a run was cancelled.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return false
	}
	r.current.cancel()
	r.status.LastError = CancelAdvisory
	r.stopAdvisory()
	r.advisory = time.AfterFunc(r.advisoryTTL, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.status.LastError == CancelAdvisory {
			r.status.LastError = ""
		}
	})
	return true
}

// stopAdvisory must be called with mu held.
func (r *Runner) stopAdvisory() {
	if r.advisory != nil {
		r.advisory.Stop()
		r.advisory = nil
	}
}

// Status returns a snapshot of the runner state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	st := r.status
	r.mu.Unlock()

	if r.settings != nil {
		if last, err := r.settings.LastSync(); err == nil {
			st.LastSync = last
		}
	}
	return st
}

// Wait blocks until the run in flight, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	run := r.current
	r.mu.Unlock()
	if run != nil {
		<-run.done
	}
}

func (r *Runner) execute(ctx context.Context, run *Run) {
	defer close(run.done)
	defer run.cancel()

	req := run.Request
	start := time.Now()
	r.publish(&events.SyncStarted{
		BaseEvent: events.NewBaseEvent(events.EventSyncStarted, events.EntitySync, run.ID),
		Mode:      string(req.Mode),
		Scope:     string(req.Scope),
		Trigger:   string(req.Trigger),
	})

	run.result = r.sync(ctx, run)
	r.complete(run, time.Since(start))
}

func (r *Runner) sync(ctx context.Context, run *Run) Result {
	if res := r.checker.CheckServerStatus(ctx); !res.OK() {
		if ctx.Err() != nil {
			return Result{Kind: ResultCancelled}
		}
		kind := ResultNetworkError
		if res.Kind == session.UnknownError {
			kind = ResultUnknownError
		}
		return Result{Kind: kind, Message: res.Message}
	}

	report := func(p Progress) {
		r.mu.Lock()
		if r.current == run {
			r.status.Phase = p.Phase
			r.status.Processed = p.Processed
			r.status.Total = p.Total
		}
		r.mu.Unlock()
		r.publish(&events.SyncProgressed{
			BaseEvent: events.NewBaseEvent(events.EventSyncProgressed, events.EntitySync, run.ID),
			Phase:     string(p.Phase),
			Processed: p.Processed,
			Total:     p.Total,
		})
	}

	req := run.Request
	switch req.Mode {
	case ModeFast:
		return r.syncer.Fast(ctx, req.Scope, report)
	case ModeDetails:
		return r.syncer.DetailsOnly(ctx, req.Scope, report)
	default:
		return r.syncer.Incremental(ctx, req.Scope, req.ForceFullMovies, report)
	}
}

func (r *Runner) complete(run *Run, elapsed time.Duration) {
	res := run.result
	req := run.Request
	base := func(eventType string) events.BaseEvent {
		return events.NewBaseEvent(eventType, events.EntitySync, run.ID)
	}

	r.mu.Lock()
	if r.current == run {
		r.current = nil
		r.status.Running = false
		switch res.Kind {
		case ResultSuccess:
			r.status.LastError = ""
		case ResultCancelled:
			// Cancel owns the advisory.
		default:
			r.status.LastError = res.Message
		}
	}
	r.mu.Unlock()

	switch res.Kind {
	case ResultSuccess:
		r.publish(&events.SyncCompleted{
			BaseEvent:  base(events.EventSyncCompleted),
			Mode:       string(req.Mode),
			Scope:      string(req.Scope),
			DurationMS: elapsed.Milliseconds(),
			Movies:     res.Movies,
			Series:     res.Series,
		})
	case ResultCancelled:
		r.publish(&events.SyncCancelled{
			BaseEvent: base(events.EventSyncCancelled),
			Mode:      string(req.Mode),
			Scope:     string(req.Scope),
			Reason:    CancelAdvisory,
		})
	default:
		r.publish(&events.SyncFailed{
			BaseEvent: base(events.EventSyncFailed),
			Mode:      string(req.Mode),
			Scope:     string(req.Scope),
			Message:   res.Message,
			Retryable: res.Kind == ResultNetworkError,
		})
	}
}

func (r *Runner) publish(e events.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(context.Background(), e); err != nil {
		r.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}
