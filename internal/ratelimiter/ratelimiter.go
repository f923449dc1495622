// Package ratelimiter wraps a token bucket for per-process request
// throttling.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a sustained request rate with burst headroom.
//
// Tokens refill at the configured rate; each request consumes one. A full
// bucket lets short spikes through, a drained bucket rejects (Allow) or
// delays (Wait) the caller.
//
// Thread safety: all methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained and up to
// burst immediate requests. A zero requestsPerSecond disables limiting.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		// rate.Inf not used so burst accounting stays meaningful.
		requestsPerSecond = 1_000_000_000
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed, consuming a token when it
// does. Never blocks.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the current bucket fill, for monitoring only.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
