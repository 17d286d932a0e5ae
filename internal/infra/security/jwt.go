package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
)

var (
	// ErrTokenExpired indicates the token was well-formed but past its expiry.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrInvalidToken covers bad signatures, wrong algorithms and garbage input.
	ErrInvalidToken = errors.New("jwt: invalid token")
	// ErrMalformedClaims indicates the token verified but its payload does not
	// carry the expected claim set.
	ErrMalformedClaims = errors.New("jwt: malformed claims")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims is the payload of an access token. SessionToken references the
// opaque server-side session the JWT was minted against.
type AccessClaims struct {
	UserID       string `json:"uid"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	SessionToken string `json:"session_token"`
	TokenType    string `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims wraps the opaque refresh token.
type RefreshClaims struct {
	Token     string `json:"token"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the two JWT families. Access and refresh
// tokens use distinct HMAC secrets so one can never stand in for the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenCodec constructs a codec. TTLs fall back to 15m / 168h when unset.
func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenCodec, error) {
	if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
		return nil, fmt.Errorf("jwt: both secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("jwt: access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// WithClock overrides the time source, for tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// AccessTTL exposes the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// SignAccess mints an access token bound to the supplied session token.
func (c *TokenCodec) SignAccess(user domain.SessionUser, sessionToken string) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(c.accessTTL)

	claims := AccessClaims{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         string(user.Role),
		SessionToken: sessionToken,
		TokenType:    tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// SignRefresh wraps the opaque refresh token in a long-lived JWT.
func (c *TokenCodec) SignRefresh(refreshToken string) (string, error) {
	now := c.now().UTC()

	claims := RefreshClaims{
		Token:     refreshToken,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign refresh token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access token against the access secret.
func (c *TokenCodec) ParseAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(token, claims, c.accessSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess || claims.UserID == "" || claims.SessionToken == "" {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret.
func (c *TokenCodec) ParseRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(token, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh || claims.Token == "" {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

func (c *TokenCodec) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		default:
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
