package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/security"
	"github.com/anmol-chhetri-G/Security-Web/internal/repository"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8
)

// AuthService coordinates the signup, login, refresh and logout pipelines.
type AuthService struct {
	users    port.UserRepository
	sessions *SessionService
	codec    *security.TokenCodec
	hasher   *security.PasswordHasher
	limiter  port.LoginRateLimiter
	lockout  *LockoutTracker
	store    port.Pinger
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	sessions *SessionService,
	codec *security.TokenCodec,
	hasher *security.PasswordHasher,
	limiter port.LoginRateLimiter,
	lockout *LockoutTracker,
	store port.Pinger,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		hasher:   hasher,
		limiter:  limiter,
		lockout:  lockout,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// SignupInput carries the raw registration payload plus request metadata.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Context  SessionContext
}

// LoginInput carries the raw login payload plus request metadata.
type LoginInput struct {
	Email    string
	Password string
	Context  SessionContext
}

// AuthResult is the token bundle handed back after signup, login or refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         domain.PublicProfile
}

// Signup validates the payload, registers the user and starts a session.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	// The username is validated as submitted, padding included; a payload
	// that would need cleanup is rejected rather than quietly altered.
	username := input.Username
	email := normalizeEmail(input.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.pingStore(ctx); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := domain.User{
		ID:                 uuid.NewString(),
		Username:           username,
		Email:              email,
		PasswordHash:       hash,
		Role:               domain.RoleUser,
		IsActive:           true,
		LastLogin:          &now,
		LastPasswordChange: &now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The email check above races with concurrent signups; the unique
		// index on users.email is the authority.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.startSession(ctx, user, input.Context)
}

// Login runs the full authentication pipeline: throttle, store check,
// lockout, password verification and session issuance.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, newValidationError("email", "Email is required")
	}
	if input.Password == "" {
		return nil, newValidationError("password", "Password is required")
	}

	// Every attempt consumes a slot, successful ones included; only a
	// completed login resets the window.
	if s.limiter != nil {
		decision, err := s.limiter.Check(ctx, email)
		if err != nil {
			// The throttle is a soft defense; a broken store must not
			// take logins down with it.
			s.logger.Warn("rate limiter unavailable", zap.Error(err))
		} else if !decision.Allowed {
			return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
		}
	}

	if err := s.pingStore(ctx); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	// A locked account refuses even the correct password.
	if remaining, locked := s.lockout.Status(user); locked {
		return nil, &AccountLockedError{RetryAfter: remaining}
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		lockedNow, err := s.lockout.RegisterFailure(ctx, user)
		if err != nil {
			s.logger.Error("persist failed attempt", zap.Error(err))
		}
		if lockedNow {
			remaining, _ := s.lockout.Status(user)
			return nil, &AccountLockedError{RetryAfter: remaining}
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.Reset(ctx, user); err != nil {
		s.logger.Error("reset failed attempts", zap.Error(err))
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("reset rate limiter", zap.Error(err))
		}
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("update last login", zap.Error(err))
	}
	user.LastLogin = &now

	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return s.startSession(ctx, *user, input.Context)
}

// Refresh redeems a refresh JWT for a new access token. The session token
// rotates; the refresh JWT stays valid and is echoed back.
func (s *AuthService) Refresh(ctx context.Context, refreshJWT string) (*AuthResult, error) {
	claims, err := s.codec.ParseRefresh(refreshJWT)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	rotated, err := s.sessions.Refresh(ctx, claims.Token)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.codec.SignAccess(rotated.User, rotated.SessionToken)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshJWT,
		ExpiresAt:    expiresAt,
		User: domain.PublicProfile{
			ID:       rotated.User.ID,
			Username: rotated.User.Username,
			Email:    rotated.User.Email,
			Role:     rotated.User.Role,
		},
	}, nil
}

// Authenticate resolves a bearer access token into a session view, enforcing
// that the signed claims still agree with the live session.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.SessionView, error) {
	claims, err := s.codec.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}

	view, err := s.sessions.Validate(ctx, claims.SessionToken)
	if err != nil {
		return nil, err
	}

	if claims.UserID != view.UserID || claims.Email != view.Email || claims.Username != view.Username {
		return nil, ErrTokenMismatch
	}

	return view, nil
}

// Logout ends the session behind the token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Invalidate(ctx, sessionToken)
}

// LogoutAll ends every session of the user and reports how many.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	return s.sessions.InvalidateAllForUser(ctx, userID)
}

// ListSessions returns the caller's active sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListActive(ctx, userID)
}

func (s *AuthService) startSession(ctx context.Context, user domain.User, meta SessionContext) (*AuthResult, error) {
	creds, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}

	sessionUser := domain.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
	}

	accessToken, expiresAt, err := s.codec.SignAccess(sessionUser, creds.SessionToken)
	if err != nil {
		return nil, err
	}

	refreshJWT, err := s.codec.SignRefresh(creds.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshJWT,
		ExpiresAt:    expiresAt,
		User:         user.Profile(),
	}, nil
}

func (s *AuthService) pingStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("database unreachable", zap.Error(err))
		return ErrStoreUnavailable
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if username == "" {
		return newValidationError("username", "Username is required")
	}
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return newValidationError("username", fmt.Sprintf("Username must be %d-%d characters long", usernameMinLength, usernameMaxLength))
	}
	if !usernamePattern.MatchString(username) {
		return newValidationError("username", "Username may only contain letters, numbers, dots, underscores and hyphens")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return newValidationError("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return newValidationError("email", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return newValidationError("password", "Password is required")
	}
	if len(password) < passwordMinLength {
		return newValidationError("password", fmt.Sprintf("Password must be at least %d characters long", passwordMinLength))
	}
	return nil
}
