package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/security"
	"github.com/anmol-chhetri-G/Security-Web/internal/repository"
)

type authFixture struct {
	users    *stubUserRepo
	sessions *stubSessionRepo
	limiter  *stubLimiter
	codec    *security.TokenCodec
	service  *AuthService
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	codec, err := security.NewTokenCodec("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 168*time.Hour, "security-web")
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}
	codec.WithClock(clock)

	f.codec = codec
	f.users = newStubUserRepo()
	f.sessions = newStubSessionRepo(f.users)
	f.limiter = &stubLimiter{decision: port.RateLimitDecision{Allowed: true, Remaining: 4}}

	sessionSvc := NewSessionService(f.sessions, f.users, 15*time.Minute).WithClock(clock)
	lockout := NewLockoutTracker(f.users, 5, 15*time.Minute).WithClock(clock)
	hasher := security.NewPasswordHasher(bcrypt.MinCost)

	f.service = NewAuthService(f.users, sessionSvc, codec, hasher, f.limiter, lockout, &stubPinger{}, nil).WithClock(clock)

	return f
}

func (f *authFixture) signup(t *testing.T) *AuthResult {
	t.Helper()
	result, err := f.service.Signup(context.Background(), SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return result
}

func TestSignupIssuesWorkingTokens(t *testing.T) {
	f := newAuthFixture(t)

	result := f.signup(t)

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if result.User.Username != "alice" || result.User.Role != domain.RoleUser {
		t.Fatalf("unexpected profile: %+v", result.User)
	}
	if got, want := result.ExpiresAt, f.now.Add(15*time.Minute); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}

	view, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate fresh token: %v", err)
	}
	if view.Username != "alice" {
		t.Fatalf("view username = %q", view.Username)
	}

	user, err := f.users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("stored user: %v", err)
	}
	if user.SessionToken == nil || *user.SessionToken != view.SessionToken {
		t.Fatal("user session pointer not set to the active session token")
	}
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)

	cases := []struct {
		name  string
		input SignupInput
		field string
	}{
		{"empty username", SignupInput{Email: "a@b.co", Password: "longenough"}, "username"},
		{"short username", SignupInput{Username: "ab", Email: "a@b.co", Password: "longenough"}, "username"},
		{"bad characters", SignupInput{Username: "has space", Email: "a@b.co", Password: "longenough"}, "username"},
		{"padded username", SignupInput{Username: " alice ", Email: "a@b.co", Password: "longenough"}, "username"},
		{"missing email", SignupInput{Username: "alice", Password: "longenough"}, "email"},
		{"bad email", SignupInput{Username: "alice", Email: "not-an-email", Password: "longenough"}, "email"},
		{"short password", SignupInput{Username: "alice", Email: "a@b.co", Password: "short"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Signup(context.Background(), tc.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	_, err := f.service.Signup(context.Background(), SignupInput{
		Username: "alice2",
		Email:    "Alice@Example.com",
		Password: "another pass",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupDuplicateEmailRace(t *testing.T) {
	f := newAuthFixture(t)

	// The pre-insert lookup misses, then the unique index refuses the row.
	f.users.createErr = repository.ErrDuplicate

	_, err := f.service.Signup(context.Background(), SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	if user.LoginAttempts != 1 {
		t.Fatalf("login attempts = %d, want 1", user.LoginAttempts)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	for i := 0; i < 4; i++ {
		_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("fifth failure: expected AccountLockedError, got %v", err)
	}
	if locked.RetryAfter != 15*time.Minute {
		t.Fatalf("retry after = %v, want 15m", locked.RetryAfter)
	}

	// The correct password is refused too while the lock holds.
	_, err = f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if !errors.As(err, &locked) {
		t.Fatalf("locked login with correct password: expected AccountLockedError, got %v", err)
	}
}

func TestLoginAfterLockoutExpiry(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	for i := 0; i < 5; i++ {
		f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	}

	f.now = f.now.Add(16 * time.Minute)

	result, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login after expiry: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	if user.LoginAttempts != 0 || user.LockoutUntil != nil {
		t.Fatalf("counters not cleared: attempts=%d lockout=%v", user.LoginAttempts, user.LockoutUntil)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	f.limiter.decision = port.RateLimitDecision{Allowed: false, RetryAfter: 7 * time.Minute}

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limited.RetryAfter != 7*time.Minute {
		t.Fatalf("retry after = %v, want 7m", limited.RetryAfter)
	}
}

func TestLoginResetsRateLimiter(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if len(f.limiter.resets) != 1 || f.limiter.resets[0] != "alice@example.com" {
		t.Fatalf("limiter resets = %v", f.limiter.resets)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	f.users.users[user.ID].IsActive = false

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestLoginStoreUnavailable(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	pingErr := errors.New("connection refused")
	f.service.store = &stubPinger{err: pingErr}

	_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRefreshRotatesSessionToken(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	oldView, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	refreshed, err := f.service.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != result.RefreshToken {
		t.Fatal("refresh JWT must be echoed back unchanged")
	}
	if refreshed.AccessToken == result.AccessToken {
		t.Fatal("expected a new access token")
	}

	// The old access token now references a rotated-away session token.
	_, err = f.service.Authenticate(context.Background(), result.AccessToken)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("old access token: expected ErrSessionInvalid, got %v", err)
	}

	newView, err := f.service.Authenticate(context.Background(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("authenticate rotated token: %v", err)
	}
	if newView.SessionID != oldView.SessionID {
		t.Fatal("rotation must reuse the same session row")
	}
	if newView.SessionToken == oldView.SessionToken {
		t.Fatal("session token did not rotate")
	}

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	if user.SessionToken == nil || *user.SessionToken != newView.SessionToken {
		t.Fatal("user session pointer not updated after rotation")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Refresh(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshAfterLogout(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	view, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := f.service.Logout(context.Background(), view.SessionToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = f.service.Refresh(context.Background(), result.RefreshToken)
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken after logout, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	f.now = f.now.Add(16 * time.Minute)

	_, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if !errors.Is(err, security.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthenticateTamperedToken(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	tampered := result.AccessToken[:len(result.AccessToken)-2] + "xx"

	_, err := f.service.Authenticate(context.Background(), tampered)
	if !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateClaimsMismatch(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	view, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	// Sign claims that name a different user over the same session token.
	forged, _, err := f.codec.SignAccess(domain.SessionUser{
		ID:       "someone-else",
		Username: "mallory",
		Email:    "mallory@example.com",
		Role:     domain.RoleUser,
		IsActive: true,
	}, view.SessionToken)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}

	_, err = f.service.Authenticate(context.Background(), forged)
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	result := f.signup(t)

	view, err := f.service.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := f.service.Logout(context.Background(), view.SessionToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := f.service.Logout(context.Background(), view.SessionToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	_, err = f.service.Authenticate(context.Background(), result.AccessToken)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after logout, got %v", err)
	}

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	if user.SessionToken != nil {
		t.Fatal("session pointer not cleared on logout")
	}
}

func TestLogoutAllCountsSessions(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	for i := 0; i < 2; i++ {
		_, err := f.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}

	user, _ := f.users.GetByEmail(context.Background(), "alice@example.com")
	count, err := f.service.LogoutAll(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if count != 3 {
		t.Fatalf("ended sessions = %d, want 3", count)
	}

	remaining, err := f.service.ListSessions(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("active sessions after logout all = %d", len(remaining))
	}
}
