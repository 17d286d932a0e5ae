package port

import (
	"context"
	"time"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
)

// SessionRepository deals with session storage.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	// GetActiveByToken resolves an active, unexpired session by its opaque
	// session token, joined with its owner.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.SessionWithUser, error)
	// GetActiveByRefreshToken resolves an active, unexpired session by its
	// opaque refresh token, joined with its owner.
	GetActiveByRefreshToken(ctx context.Context, token string, now time.Time) (*domain.SessionWithUser, error)
	TouchActivity(ctx context.Context, sessionID string, at time.Time) error
	// RotateToken swaps in a fresh session token and extends the expiry.
	// The refresh token is left untouched.
	RotateToken(ctx context.Context, sessionID string, newToken string, expiresAt time.Time, at time.Time) error
	// DeactivateByToken marks the session inactive and returns the owning
	// user id. ErrNotFound when no such token exists.
	DeactivateByToken(ctx context.Context, token string) (string, error)
	DeactivateAllForUser(ctx context.Context, userID string) (int, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)
}
