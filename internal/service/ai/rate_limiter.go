package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultRateLimit is the default QPS limit.
const DefaultRateLimit = 1

// RateLimiter throttles calls to one provider.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given QPS.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), qps), // burst = qps
	}
}

// Wait blocks until a token is available or context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Limit returns the configured rate.
func (r *RateLimiter) Limit() int {
	return int(r.limiter.Limit())
}
