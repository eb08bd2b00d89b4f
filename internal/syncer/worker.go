package syncer

import (
	"context"
	"log/slog"

	"github.com/vmunix/shelfsync/internal/library"
)

// Outcome tells a scheduler what to do after a background run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	default:
		return "failure"
	}
}

// OutcomeOf maps a sync result to a worker outcome. Network errors are worth
// retrying; cancellation and unknown errors are not.
func OutcomeOf(res Result) Outcome {
	switch res.Kind {
	case ResultSuccess:
		return OutcomeSuccess
	case ResultNetworkError:
		return OutcomeRetry
	default:
		return OutcomeFailure
	}
}

// Worker runs background incremental syncs through a Runner.
type Worker struct {
	runner  *Runner
	trigger Trigger
	log     *slog.Logger
}

// NewWorker creates a worker that tags its runs with trigger.
func NewWorker(runner *Runner, trigger Trigger, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{runner: runner, trigger: trigger, log: logger.With("component", "worker")}
}

// Work runs an incremental sync for scope and waits for it.
func (w *Worker) Work(ctx context.Context, scope library.Scope) Outcome {
	run := w.runner.Start(ctx, Request{Mode: ModeIncremental, Scope: scope, Trigger: w.trigger})
	res := run.Wait()

	out := OutcomeOf(res)
	switch res.Kind {
	case ResultSuccess, ResultCancelled:
		w.log.Debug("background sync finished", "run_id", run.ID, "result", res.Kind)
	case ResultNetworkError:
		w.log.Warn("background sync failed, will retry", "run_id", run.ID, "error", res.Message)
	default:
		w.log.Error("background sync failed", "run_id", run.ID, "error", res.Message)
	}
	return out
}
