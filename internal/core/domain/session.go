package domain

import "time"

// Session represents a persisted login session. SessionToken and RefreshToken
// are opaque random values; the JWTs handed to clients reference them but are
// never stored.
type Session struct {
	ID           string
	UserID       string
	SessionToken string
	RefreshToken string
	IPAddress    *string
	UserAgent    *string
	DeviceInfo   map[string]any
	IsActive     bool
	ExpiresAt    time.Time
	LastActivity time.Time
	CreatedAt    time.Time
}

// Usable reports whether the session can still authenticate requests at the
// supplied moment.
func (s Session) Usable(at time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(at)
}

// SessionUser is the slice of the owning user joined alongside a session
// during validation.
type SessionUser struct {
	ID       string
	Username string
	Email    string
	Role     Role
	IsActive bool
}

// SessionWithUser pairs a session with its owner for single-query validation.
type SessionWithUser struct {
	Session
	User SessionUser
}

// SessionView is the flattened result of validating a session token. It is
// what the auth middleware attaches to the request.
type SessionView struct {
	SessionID    string
	SessionToken string
	UserID       string
	Username     string
	Email        string
	Role         Role
}

// SessionCredentials is what the session store hands back on creation:
// the opaque token pair plus the session expiry.
type SessionCredentials struct {
	SessionID    string
	SessionToken string
	RefreshToken string
	ExpiresAt    time.Time
}

// RotatedSession is the result of redeeming a refresh token: a fresh session
// token with a renewed expiry, plus the owner for re-minting the access JWT.
type RotatedSession struct {
	SessionID    string
	SessionToken string
	RefreshToken string
	ExpiresAt    time.Time
	User         SessionUser
}
