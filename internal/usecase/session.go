package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/security"
	"github.com/anmol-chhetri-G/Security-Web/internal/repository"
)

// SessionService owns the opaque-token session store semantics: creation,
// validation with activity touch, refresh rotation, invalidation and the
// periodic expiry sweep.
type SessionService struct {
	sessions port.SessionRepository
	users    port.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService constructs a SessionService. TTL falls back to 15 minutes.
func NewSessionService(sessions port.SessionRepository, users port.UserRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// SessionContext carries request metadata stored alongside a new session.
type SessionContext struct {
	IPAddress  *string
	UserAgent  *string
	DeviceInfo map[string]any
}

// Create mints a new session with fresh opaque tokens and updates the
// denormalized pointer on the user row.
func (s *SessionService) Create(ctx context.Context, userID string, meta SessionContext) (*domain.SessionCredentials, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessionToken, err := security.GenerateOpaqueToken(security.OpaqueTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	refreshToken, err := security.GenerateOpaqueToken(security.OpaqueTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		DeviceInfo:   meta.DeviceInfo,
		IsActive:     true,
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, userID, &sessionToken); err != nil {
		return nil, fmt.Errorf("update session pointer: %w", err)
	}

	return &domain.SessionCredentials{
		SessionID:    session.ID,
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Validate resolves an opaque session token into a view of the session and
// its owner, bumping last activity on the way. Unknown, expired and inactive
// tokens all collapse into ErrSessionInvalid.
func (s *SessionService) Validate(ctx context.Context, sessionToken string) (*domain.SessionView, error) {
	if sessionToken == "" {
		return nil, ErrSessionInvalid
	}

	now := s.now().UTC()
	found, err := s.sessions.GetActiveByToken(ctx, sessionToken, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if !found.User.IsActive {
		return nil, ErrSessionInvalid
	}

	// Best effort; a failed touch must not fail authentication.
	_ = s.sessions.TouchActivity(ctx, found.ID, now)

	return &domain.SessionView{
		SessionID:    found.ID,
		SessionToken: found.SessionToken,
		UserID:       found.User.ID,
		Username:     found.User.Username,
		Email:        found.User.Email,
		Role:         found.User.Role,
	}, nil
}

// Refresh redeems an opaque refresh token: the session gets a brand-new
// session token and a renewed expiry window. The refresh token itself is
// left in place, and the old session token stops resolving immediately.
// A session whose window has already lapsed cannot be refreshed.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.RotatedSession, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	now := s.now().UTC()
	found, err := s.sessions.GetActiveByRefreshToken(ctx, refreshToken, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if !found.User.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	newToken, err := security.GenerateOpaqueToken(security.OpaqueTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := now.Add(s.ttl)
	if err := s.sessions.RotateToken(ctx, found.ID, newToken, expiresAt, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, found.User.ID, &newToken); err != nil {
		return nil, fmt.Errorf("update session pointer: %w", err)
	}

	return &domain.RotatedSession{
		SessionID:    found.ID,
		SessionToken: newToken,
		RefreshToken: found.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         found.User,
	}, nil
}

// Invalidate deactivates the session behind the token and clears the user's
// session pointer. Unknown tokens are a no-op, which keeps logout idempotent.
func (s *SessionService) Invalidate(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	userID, err := s.sessions.DeactivateByToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deactivate session: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, userID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear session pointer: %w", err)
	}

	return nil
}

// InvalidateAllForUser deactivates every active session of the user and
// clears the pointer. Returns how many sessions were ended.
func (s *SessionService) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	count, err := s.sessions.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, userID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return count, fmt.Errorf("clear session pointer: %w", err)
	}

	return count, nil
}

// ListActive returns the user's active sessions ordered by recency.
func (s *SessionService) ListActive(ctx context.Context, userID string) ([]domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessions, err := s.sessions.ListActiveByUser(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// SweepExpired deactivates sessions whose expiry has passed. Expiry only ever
// moves sessions toward inactive, so running concurrently with refresh is safe.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	count, err := s.sessions.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return count, nil
}
