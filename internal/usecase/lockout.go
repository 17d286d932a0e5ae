package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

// LockoutTracker maintains the durable per-account failure counter. Unlike
// the rate limiter it lives on the user row, so restarts do not unlock
// accounts early.
type LockoutTracker struct {
	users       port.UserRepository
	maxAttempts int
	duration    time.Duration
	now         func() time.Time
}

// NewLockoutTracker constructs a tracker with the configured threshold and
// lockout duration, defaulting to 5 failures and 15 minutes.
func NewLockoutTracker(users port.UserRepository, maxAttempts int, duration time.Duration) *LockoutTracker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	return &LockoutTracker{
		users:       users,
		maxAttempts: maxAttempts,
		duration:    duration,
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (t *LockoutTracker) WithClock(now func() time.Time) *LockoutTracker {
	t.now = now
	return t
}

// Status reports whether the account is currently locked. An expired lock is
// reported unlocked; the stale counter is cleared lazily on the next outcome.
func (t *LockoutTracker) Status(user *domain.User) (time.Duration, bool) {
	return user.IsLockedOut(t.now().UTC())
}

// RegisterFailure increments the counter and, on reaching the threshold,
// starts a lockout. An expired lockout restarts counting at one. Reports
// whether this failure triggered a lock.
func (t *LockoutTracker) RegisterFailure(ctx context.Context, user *domain.User) (bool, error) {
	now := t.now().UTC()

	attempts := user.LoginAttempts + 1
	if user.LockoutUntil != nil && !user.LockoutUntil.After(now) {
		attempts = 1
	}

	var lockoutUntil *time.Time
	if attempts >= t.maxAttempts {
		deadline := now.Add(t.duration)
		lockoutUntil = &deadline
	}

	if err := t.users.SetLoginAttempts(ctx, user.ID, attempts, lockoutUntil); err != nil {
		return false, fmt.Errorf("persist login attempts: %w", err)
	}

	user.LoginAttempts = attempts
	user.LockoutUntil = lockoutUntil

	return lockoutUntil != nil, nil
}

// Reset clears the counter and any lockout after a successful login.
func (t *LockoutTracker) Reset(ctx context.Context, user *domain.User) error {
	if user.LoginAttempts == 0 && user.LockoutUntil == nil {
		return nil
	}

	if err := t.users.SetLoginAttempts(ctx, user.ID, 0, nil); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}

	user.LoginAttempts = 0
	user.LockoutUntil = nil

	return nil
}
