package jellyfin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker around a server.
type BreakerSettings struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// MinRequests must be observed before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

// DefaultBreakerSettings trips at 60% failures over at least ten requests.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:  3,
	Interval:     time.Minute,
	OpenTimeout:  2 * time.Minute,
	MinRequests:  10,
	FailureRatio: 0.6,
}

// BreakerClient guards an API with a circuit breaker. Client errors (4xx) and
// cancellations do not count against the server.
type BreakerClient struct {
	api API
	cb  *gobreaker.CircuitBreaker[any]
}

var _ API = (*BreakerClient)(nil)

// NewBreakerClient wraps api. name identifies the breaker in logs.
func NewBreakerClient(api API, name string, s BreakerSettings, log *slog.Logger) *BreakerClient {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "breaker", "server", name)
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(_ string, from, to gobreaker.State) {
			log.Warn("circuit state changed", "from", from.String(), "to", to.String())
		},
	})
	return &BreakerClient{api: api, cb: cb}
}

// State reports the breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if se, ok := IsStatus(err); ok {
		return se.StatusCode < http.StatusInternalServerError
	}
	return false
}

func guard[T any](b *BreakerClient, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func (b *BreakerClient) Ping(ctx context.Context) error {
	_, err := guard(b, func() (struct{}, error) {
		return struct{}{}, b.api.Ping(ctx)
	})
	return err
}

func (b *BreakerClient) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	return guard(b, func() (*AuthResult, error) {
		return b.api.Authenticate(ctx, username, password)
	})
}

func (b *BreakerClient) ListItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	return guard(b, func() ([]Item, error) {
		return b.api.ListItems(ctx, q)
	})
}

func (b *BreakerClient) GetItem(ctx context.Context, userID, itemID, fields string) (*Item, error) {
	return guard(b, func() (*Item, error) {
		return b.api.GetItem(ctx, userID, itemID, fields)
	})
}

func (b *BreakerClient) ListSeasons(ctx context.Context, seriesID, userID, fields string) ([]Item, error) {
	return guard(b, func() ([]Item, error) {
		return b.api.ListSeasons(ctx, seriesID, userID, fields)
	})
}

func (b *BreakerClient) ListEpisodes(ctx context.Context, seriesID, userID, fields string) ([]Item, error) {
	return guard(b, func() ([]Item, error) {
		return b.api.ListEpisodes(ctx, seriesID, userID, fields)
	})
}
