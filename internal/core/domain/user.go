package domain

import "time"

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User mirrors the persisted representation in the users table.
//
// SessionToken is a denormalized pointer to the user's most recently issued
// session. LoginAttempts and LockoutUntil survive restarts so a lockout
// cannot be escaped by bouncing the process.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string
	Role               Role
	IsActive           bool
	LastLogin          *time.Time
	SessionToken       *string
	LoginAttempts      int
	LockoutUntil       *time.Time
	LastPasswordChange *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsLockedOut reports whether the account is locked at the supplied moment
// and, when it is, how long until the lock expires.
func (u User) IsLockedOut(at time.Time) (time.Duration, bool) {
	if u.LockoutUntil == nil || !u.LockoutUntil.After(at) {
		return 0, false
	}
	return u.LockoutUntil.Sub(at), true
}

// PublicProfile is the sanitized user shape returned by the API.
// It never carries the password hash or lockout bookkeeping.
type PublicProfile struct {
	ID        string
	Username  string
	Email     string
	Role      Role
	LastLogin *time.Time
	CreatedAt time.Time
}

// Profile strips the sensitive fields from a user record.
func (u User) Profile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
