package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/security"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

const identityKey = "identity"

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"traceId,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// Identity is the authenticated caller attached to the request context.
// The zero value represents an anonymous request.
type Identity struct {
	SessionID     string
	SessionToken  string
	UserID        string
	Username      string
	Email         string
	Role          domain.Role
	Authenticated bool
}

// RequireAuth validates the bearer access token against both its signature
// and the live session, and aborts the request when either check fails.
// Expiry is reported as 401 so clients know to refresh; every other failure
// is a 403.
func RequireAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "No token provided"))
			return
		}

		view, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		setIdentity(c, view)
		c.Next()
	}
}

// OptionalAuth resolves the bearer token when one is present but never aborts.
// Handlers see either a populated Identity or the anonymous zero value.
func OptionalAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		view, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		setIdentity(c, view)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated identity
// carries one of the listed roles. Must run after RequireAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if !identity.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "Authentication required"))
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "Insufficient permissions"))
	}
}

// RequireAdmin is RequireRole fixed to the admin role.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// GetIdentity returns the request identity, anonymous when unset.
func GetIdentity(c *gin.Context) Identity {
	if value, exists := c.Get(identityKey); exists {
		if identity, ok := value.(Identity); ok {
			return identity
		}
	}
	return Identity{}
}

func setIdentity(c *gin.Context, view *domain.SessionView) {
	c.Set(identityKey, Identity{
		SessionID:     view.SessionID,
		SessionToken:  view.SessionToken,
		UserID:        view.UserID,
		Username:      view.Username,
		Email:         view.Email,
		Role:          view.Role,
		Authenticated: true,
	})
	c.Set(UserIDKey, view.UserID)

	if reqCtx := GetRequestContext(c); reqCtx != nil {
		reqCtx.UserID = view.UserID
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "Token expired"))
	case errors.Is(err, security.ErrMalformedClaims):
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "Invalid token format"))
	case errors.Is(err, security.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "Invalid token"))
	case errors.Is(err, usecase.ErrSessionInvalid):
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "Session expired or invalid"))
	case errors.Is(err, usecase.ErrTokenMismatch):
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "Token data mismatch"))
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			newErrorResponse(c, "Authentication failed"))
	}
}
