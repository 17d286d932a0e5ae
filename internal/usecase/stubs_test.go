package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/repository"
)

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := user
	r.users[user.ID] = &copied
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLogin = &at
	return nil
}

func (r *stubUserRepo) SetLoginAttempts(_ context.Context, id string, attempts int, lockoutUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LoginAttempts = attempts
	user.LockoutUntil = lockoutUntil
	return nil
}

func (r *stubUserRepo) SetSessionToken(_ context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.SessionToken = token
	return nil
}

var _ port.UserRepository = (*stubUserRepo)(nil)

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	users    *stubUserRepo
}

func newStubSessionRepo(users *stubUserRepo) *stubSessionRepo {
	return &stubSessionRepo{
		sessions: make(map[string]*domain.Session),
		users:    users,
	}
}

func (r *stubSessionRepo) joined(session domain.Session) (*domain.SessionWithUser, error) {
	user, err := r.users.GetByID(context.Background(), session.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.SessionWithUser{
		Session: session,
		User: domain.SessionUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
			IsActive: user.IsActive,
		},
	}, nil
}

func (r *stubSessionRepo) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *stubSessionRepo) GetActiveByToken(_ context.Context, token string, now time.Time) (*domain.SessionWithUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.SessionToken == token && session.IsActive && session.ExpiresAt.After(now) {
			return r.joined(*session)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubSessionRepo) GetActiveByRefreshToken(_ context.Context, token string, now time.Time) (*domain.SessionWithUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.RefreshToken == token && session.IsActive && session.ExpiresAt.After(now) {
			return r.joined(*session)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubSessionRepo) TouchActivity(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[sessionID]; ok {
		session.LastActivity = at
	}
	return nil
}

func (r *stubSessionRepo) RotateToken(_ context.Context, sessionID string, newToken string, expiresAt time.Time, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || !session.IsActive {
		return repository.ErrNotFound
	}
	session.SessionToken = newToken
	session.ExpiresAt = expiresAt
	session.LastActivity = at
	return nil
}

func (r *stubSessionRepo) DeactivateByToken(_ context.Context, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.SessionToken == token {
			session.IsActive = false
			return session.UserID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (r *stubSessionRepo) DeactivateAllForUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			count++
		}
	}
	return count, nil
}

func (r *stubSessionRepo) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.IsActive && !session.ExpiresAt.After(now) {
			session.IsActive = false
			count++
		}
	}
	return count, nil
}

func (r *stubSessionRepo) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Session, 0)
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			result = append(result, *session)
		}
	}
	return result, nil
}

var _ port.SessionRepository = (*stubSessionRepo)(nil)

type stubLimiter struct {
	decision port.RateLimitDecision
	checked  []string
	resets   []string
}

func (l *stubLimiter) Check(_ context.Context, key string) (port.RateLimitDecision, error) {
	l.checked = append(l.checked, key)
	return l.decision, nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	l.resets = append(l.resets, key)
	return nil
}

var _ port.LoginRateLimiter = (*stubLimiter)(nil)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error {
	return p.err
}
