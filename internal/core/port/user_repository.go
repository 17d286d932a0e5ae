package port

import (
	"context"
	"time"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// SetLoginAttempts persists the failure counter and, when non-nil, the
	// lockout deadline in one statement.
	SetLoginAttempts(ctx context.Context, id string, attempts int, lockoutUntil *time.Time) error
	// SetSessionToken updates the denormalized current-session pointer.
	// A nil token clears it.
	SetSessionToken(ctx context.Context, id string, token *string) error
}
