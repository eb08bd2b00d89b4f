package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/syncer"
)

// scriptedWorker returns its outcomes in order, then repeats the last one.
type scriptedWorker struct {
	mu       sync.Mutex
	outcomes []syncer.Outcome
	scopes   []library.Scope
	calls    atomic.Int32
}

func (w *scriptedWorker) Work(_ context.Context, scope library.Scope) syncer.Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := int(w.calls.Add(1))
	w.scopes = append(w.scopes, scope)
	if n > len(w.outcomes) {
		return w.outcomes[len(w.outcomes)-1]
	}
	return w.outcomes[n-1]
}

func newTestScheduler(t *testing.T, w Worker, attempts int) *Scheduler {
	t.Helper()
	s, err := NewScheduler(w, SchedulerConfig{
		Schedule:      "@every 1h",
		Scope:         library.ScopeMovies,
		RetryAttempts: attempts,
		RetryBackoff:  time.Millisecond,
	}, testLogger())
	require.NoError(t, err)
	return s
}

func TestScheduler_Attempt(t *testing.T) {
	tests := []struct {
		name      string
		outcomes  []syncer.Outcome
		attempts  int
		want      syncer.Outcome
		wantCalls int32
	}{
		{"success first time", []syncer.Outcome{syncer.OutcomeSuccess}, 3, syncer.OutcomeSuccess, 1},
		{"recovers after retries", []syncer.Outcome{syncer.OutcomeRetry, syncer.OutcomeRetry, syncer.OutcomeSuccess}, 3, syncer.OutcomeSuccess, 3},
		{"gives up", []syncer.Outcome{syncer.OutcomeRetry}, 3, syncer.OutcomeRetry, 4},
		{"failure is final", []syncer.Outcome{syncer.OutcomeFailure}, 3, syncer.OutcomeFailure, 1},
		{"retries disabled", []syncer.Outcome{syncer.OutcomeRetry}, 0, syncer.OutcomeRetry, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &scriptedWorker{outcomes: tt.outcomes}
			s := newTestScheduler(t, w, tt.attempts)

			assert.Equal(t, tt.want, s.Attempt(context.Background(), w))
			assert.Equal(t, tt.wantCalls, w.calls.Load())
			for _, scope := range w.scopes {
				assert.Equal(t, library.ScopeMovies, scope)
			}
		})
	}
}

func TestScheduler_AttemptStopsWhenCancelled(t *testing.T) {
	w := &scriptedWorker{outcomes: []syncer.Outcome{syncer.OutcomeRetry}}
	s, err := NewScheduler(w, SchedulerConfig{
		Schedule:      "@every 1h",
		RetryAttempts: 5,
		RetryBackoff:  time.Hour,
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	assert.Equal(t, syncer.OutcomeRetry, s.Attempt(ctx, w))
	assert.Equal(t, int32(1), w.calls.Load())
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&scriptedWorker{}, SchedulerConfig{Schedule: "every tuesday"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")
}

func TestScheduler_DefaultScope(t *testing.T) {
	s, err := NewScheduler(&scriptedWorker{}, SchedulerConfig{Schedule: "@every 6h"}, nil)
	require.NoError(t, err)
	assert.Equal(t, library.ScopeAll, s.scope)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(6*time.Hour), s.Next(now))
}

func TestScheduler_RunFiresWorker(t *testing.T) {
	w := &scriptedWorker{outcomes: []syncer.Outcome{syncer.OutcomeSuccess}}
	s, err := NewScheduler(w, SchedulerConfig{Schedule: "@every 1s"}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return w.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
