package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"NavSentinel/internal/model"
)

// GuardOptions tunes GuardedSource.
type GuardOptions struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// GuardedSource bounds every call to an upstream source with a timeout, a
// token-bucket rate limit and a circuit breaker.
type GuardedSource struct {
	inner   Source
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedSource wraps inner.
func NewGuardedSource(inner Source, opts GuardOptions) *GuardedSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	st := gobreaker.Settings{
		Name:     inner.Name(),
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &GuardedSource{
		inner:   inner,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *GuardedSource) Name() string { return g.inner.Name() }

// State exposes the breaker state for health reporting.
func (g *GuardedSource) State() string { return g.breaker.State().String() }

func (g *GuardedSource) Fetch(ctx context.Context, key Key, from, to model.Date) ([]model.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", g.inner.Name(), err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Fetch(ctx, key, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.inner.Name(), err)
	}
	points, _ := out.([]model.Point)
	return points, nil
}
