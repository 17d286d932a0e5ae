package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds the authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/signup", h.signup)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
	r.POST("/logout-all", middleware.RequireAuth(h.auth), h.logoutAll)
	r.GET("/sessions", middleware.RequireAuth(h.auth), h.sessions)
}

var signupErrorCases = []ErrorCase{
	{Err: usecase.ErrEmailTaken, Status: http.StatusBadRequest, Message: "Email already in use"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "Database connection unavailable"},
}

// Signup godoc
// @Summary Register a new account
// @Description Creates a user with the supplied credentials and returns a token pair.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/auth/signup [post]
func (h *AuthHandler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Username, email and password are required"))
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Context:  sessionContext(c),
	})
	if err != nil {
		RespondWithMappedError(c, err, signupErrorCases,
			http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password"},
	{Err: usecase.ErrInactiveAccount, Status: http.StatusUnauthorized, Message: "Account is deactivated"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "Database connection unavailable"},
}

// Login godoc
// @Summary Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Email and password are required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Context:  sessionContext(c),
	})
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases,
			http.StatusInternalServerError, "Authentication failed")
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

var refreshErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusForbidden, Message: "Invalid or expired refresh token"},
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Description Rotates the underlying session token; the refresh token itself stays valid.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh payload"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Refresh token is required"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, refreshErrorCases,
			http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// Logout godoc
// @Summary End the current session
// @Tags Authentication
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	if err := h.auth.Logout(c.Request.Context(), identity.SessionToken); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to log out"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// LogoutAll godoc
// @Summary End every session of the current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} LogoutAllResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/logout-all [post]
func (h *AuthHandler) logoutAll(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	count, err := h.auth.LogoutAll(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to log out"))
		return
	}

	c.JSON(http.StatusOK, LogoutAllResponse{
		Message: "All sessions logged out",
		Count:   count,
	})
}

// Sessions godoc
// @Summary List the caller's active sessions
// @Tags Authentication
// @Produce json
// @Success 200 {object} SessionListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/sessions [get]
func (h *AuthHandler) sessions(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	sessions, err := h.auth.ListSessions(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to list sessions"))
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, newSessionSummary(session, identity.SessionID))
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: summaries,
		Count:    len(summaries),
	})
}

func newAuthResponse(result *usecase.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
		User:         newUserProfile(result.User),
	}
}

func sessionContext(c *gin.Context) usecase.SessionContext {
	meta := usecase.SessionContext{}

	if ip := c.ClientIP(); ip != "" {
		meta.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		meta.UserAgent = &ua
	}

	return meta
}
