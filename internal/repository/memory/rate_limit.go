package memory

import (
	"context"
	"sync"
	"time"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

type attemptRecord struct {
	count   int
	resetAt time.Time
}

// RateLimitRepository enforces a fixed-window login limit in process memory.
// It is the default backend when Redis is not configured; counters reset on
// restart, which is acceptable for a soft defense.
type RateLimitRepository struct {
	mu          sync.Mutex
	records     map[string]*attemptRecord
	window      time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewRateLimitRepository constructs the in-memory limiter.
func NewRateLimitRepository(window time.Duration, maxAttempts int) *RateLimitRepository {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RateLimitRepository{
		records:     make(map[string]*attemptRecord),
		window:      window,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (r *RateLimitRepository) WithClock(now func() time.Time) *RateLimitRepository {
	r.now = now
	return r
}

// Check consumes one attempt for the key and reports whether it is allowed.
func (r *RateLimitRepository) Check(_ context.Context, key string) (port.RateLimitDecision, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[key]
	if !ok || !record.resetAt.After(now) {
		r.records[key] = &attemptRecord{count: 1, resetAt: now.Add(r.window)}
		return port.RateLimitDecision{Allowed: true, Remaining: r.maxAttempts - 1}, nil
	}

	if record.count >= r.maxAttempts {
		return port.RateLimitDecision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: record.resetAt.Sub(now),
		}, nil
	}

	record.count++
	return port.RateLimitDecision{Allowed: true, Remaining: r.maxAttempts - record.count}, nil
}

// Reset clears the counter after a successful login.
func (r *RateLimitRepository) Reset(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

// Sweep drops expired windows and returns how many were removed. The app
// runs this on a ticker so idle keys do not accumulate.
func (r *RateLimitRepository) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, record := range r.records {
		if !record.resetAt.After(now) {
			delete(r.records, key)
			removed++
		}
	}
	return removed
}

var _ port.LoginRateLimiter = (*RateLimitRepository)(nil)
