package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"traceId,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest defines the account registration payload.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh JWT to redeem.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserProfile is the sanitized user view returned by the API.
type UserProfile struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthResponse is the token bundle returned by signup, login and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         UserProfile `json:"user"`
}

// SessionSummary is one active session in the session list.
type SessionSummary struct {
	ID           string    `json:"id"`
	IPAddress    *string   `json:"ipAddress,omitempty"`
	UserAgent    *string   `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsCurrent    bool      `json:"isCurrent"`
}

// SessionListResponse lists the caller's active sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

// LogoutAllResponse reports how many sessions were ended.
type LogoutAllResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// FeedbackRequest is the feedback submission payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
	Email   string `json:"email"`
}

// FeedbackView is one stored submission as returned by the API.
type FeedbackView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackResponse confirms a stored submission.
type FeedbackResponse struct {
	Message  string       `json:"message"`
	Feedback FeedbackView `json:"feedback"`
}

// FeedbackListResponse pages through stored feedback.
type FeedbackListResponse struct {
	Feedback []FeedbackView `json:"feedback"`
	Count    int            `json:"count"`
}

// FeedbackStatsResponse aggregates all submissions.
type FeedbackStatsResponse struct {
	Total          int        `json:"total"`
	AverageRating  float64    `json:"averageRating"`
	LastSubmission *time.Time `json:"lastSubmission,omitempty"`
}

// HealthResponse reports liveness and dependency status.
type HealthResponse struct {
	Status    string            `json:"status"`
	StartedAt time.Time         `json:"startedAt"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func newUserProfile(profile domain.PublicProfile) UserProfile {
	return UserProfile{
		ID:        profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
		Role:      profile.Role,
		LastLogin: profile.LastLogin,
		CreatedAt: profile.CreatedAt,
	}
}

func newFeedbackView(entry domain.Feedback) FeedbackView {
	return FeedbackView{
		ID:        entry.ID,
		Username:  entry.Username,
		Email:     entry.Email,
		Rating:    entry.Rating,
		Comment:   entry.Comment,
		CreatedAt: entry.CreatedAt,
	}
}

func newSessionSummary(session domain.Session, currentSessionID string) SessionSummary {
	return SessionSummary{
		ID:           session.ID,
		IPAddress:    session.IPAddress,
		UserAgent:    session.UserAgent,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		ExpiresAt:    session.ExpiresAt,
		IsCurrent:    session.ID == currentSessionID,
	}
}
