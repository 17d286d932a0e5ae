package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// FeedbackHandler exposes feedback submission and the admin listing.
type FeedbackHandler struct {
	feedback *usecase.FeedbackService
}

// NewFeedbackHandler constructs FeedbackHandler.
func NewFeedbackHandler(feedback *usecase.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// RegisterRoutes binds the feedback routes. Submission is open to anonymous
// callers; listing and stats are admin only.
func (h *FeedbackHandler) RegisterRoutes(r *gin.RouterGroup, auth *usecase.AuthService) {
	r.POST("", middleware.OptionalAuth(auth), h.submit)
	r.GET("", middleware.RequireAuth(auth), middleware.RequireAdmin(), h.list)
	r.GET("/stats", middleware.RequireAuth(auth), middleware.RequireAdmin(), h.stats)
}

// Submit godoc
// @Summary Submit feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param request body FeedbackRequest true "Feedback payload"
// @Success 201 {object} FeedbackResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/feedback [post]
func (h *FeedbackHandler) submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Rating and comment are required"))
		return
	}

	identity := middleware.GetIdentity(c)

	input := usecase.FeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		Email:   req.Email,
	}
	if identity.Authenticated {
		input.UserID = identity.UserID
		input.Username = identity.Username
		input.UserEmail = identity.Email
	}
	if ip := c.ClientIP(); ip != "" {
		input.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		input.UserAgent = &ua
	}

	entry, err := h.feedback.Submit(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, nil,
			http.StatusInternalServerError, "Failed to store feedback")
		return
	}

	c.JSON(http.StatusCreated, FeedbackResponse{
		Message:  "Thank you for your feedback",
		Feedback: newFeedbackView(*entry),
	})
}

// List godoc
// @Summary List feedback entries
// @Tags Feedback
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} FeedbackListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/feedback [get]
func (h *FeedbackHandler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to list feedback"))
		return
	}

	views := make([]FeedbackView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newFeedbackView(entry))
	}

	c.JSON(http.StatusOK, FeedbackListResponse{
		Feedback: views,
		Count:    len(views),
	})
}

// Stats godoc
// @Summary Aggregate feedback statistics
// @Tags Feedback
// @Produce json
// @Success 200 {object} FeedbackStatsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/feedback/stats [get]
func (h *FeedbackHandler) stats(c *gin.Context) {
	stats, err := h.feedback.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to compute stats"))
		return
	}

	c.JSON(http.StatusOK, FeedbackStatsResponse{
		Total:          stats.Total,
		AverageRating:  stats.AverageRating,
		LastSubmission: stats.LastSubmission,
	})
}
