// Package ratelimit gates outbound requests to the market API.
//
// The upstream allows 3 requests per second. A Limiter enforces a minimum
// interval between the start of any two requests that share it, so every
// caller that talks to the same API must be handed the same Limiter.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between requests (3 req/s with headroom).
const DefaultInterval = 350 * time.Millisecond

// Limiter enforces a minimum interval between request starts. It is safe for
// concurrent use.
type Limiter struct {
	lim      *rate.Limiter
	interval time.Duration

	// sem serializes callers; last is only touched while holding it.
	sem  chan struct{}
	last time.Time
}

// New creates a Limiter with the given minimum interval. A non-positive
// interval disables limiting.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		lim:      rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		sem:      make(chan struct{}, 1),
	}
}

// Interval returns the configured minimum interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may start a request and returns how long it
// waited. Callers are released one at a time, and each release happens at
// least one interval after the previous caller was released.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if l.interval <= 0 {
		return 0, ctx.Err()
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
	defer func() { <-l.sem }()

	if err := l.lim.Wait(ctx); err != nil {
		return time.Since(start), err
	}

	// Spacing is measured from the previous release, not from the slot the
	// token bucket booked for it.
	if !l.last.IsZero() {
		for {
			remaining := l.interval - time.Since(l.last)
			if remaining <= 0 {
				break
			}
			if err := sleep(ctx, remaining); err != nil {
				return time.Since(start), err
			}
		}
	}

	l.last = time.Now()
	return time.Since(start), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
