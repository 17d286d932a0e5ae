package port

import (
	"context"
	"time"
)

// RateLimitDecision is the outcome of consuming one login attempt.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LoginRateLimiter throttles login attempts per normalized email. Check
// consumes an attempt; Reset clears the counter after a successful login.
type LoginRateLimiter interface {
	Check(ctx context.Context, key string) (RateLimitDecision, error)
	Reset(ctx context.Context, key string) error
}
