package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is deactivated.
	ErrInactiveAccount = errors.New("account is deactivated")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already in use")
	// ErrStoreUnavailable indicates the persistence backend is unreachable.
	ErrStoreUnavailable = errors.New("database connection unavailable")
	// ErrInvalidRefreshToken indicates the refresh token is unknown, revoked or malformed.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrSessionInvalid indicates the session referenced by a token no longer authenticates.
	ErrSessionInvalid = errors.New("session expired or invalid")
	// ErrTokenMismatch indicates verified claims disagree with the stored session.
	ErrTokenMismatch = errors.New("token data mismatch")
)

// ValidationError carries a field-level input failure mapped to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RateLimitedError is returned when the login throttle denies an attempt.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// AccountLockedError is returned while a durable lockout is in force.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.RetryAfter.Round(time.Second))
}
