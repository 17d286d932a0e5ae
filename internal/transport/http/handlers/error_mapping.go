package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against the typed auth
// errors first, then the sentinel cases, falling back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var validationErr *usecase.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Message))
		return
	}

	var rateLimited *usecase.RateLimitedError
	if errors.As(err, &rateLimited) {
		respondRetryAfter(c, http.StatusTooManyRequests,
			"Too many login attempts, please try again later", rateLimited.RetryAfter)
		return
	}

	var locked *usecase.AccountLockedError
	if errors.As(err, &locked) {
		respondRetryAfter(c, http.StatusLocked,
			"Account temporarily locked due to failed login attempts", locked.RetryAfter)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

func respondRetryAfter(c *gin.Context, status int, message string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 0 {
		seconds = 0
	}

	c.Writer.Header().Set("Retry-After", strconv.Itoa(seconds))
	c.JSON(status, gin.H{
		"error":      message,
		"retryAfter": seconds,
		"traceId":    middleware.GetTraceID(c),
	})
}
