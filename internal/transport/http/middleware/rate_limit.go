package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

// IdentifierFunc extracts the identifier used to scope rate limits.
type IdentifierFunc func(*gin.Context) (string, bool)

// ClientIPIdentifier scopes limits by the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimiter throttles requests through a shared fixed-window limiter.
// Store failures fail open: losing Redis must not take the API down.
type RateLimiter struct {
	limiter port.LoginRateLimiter
	logger  *zap.Logger
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(limiter port.LoginRateLimiter, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{limiter: limiter, logger: logger}
}

// Limit enforces the limiter for each request scoped by the identifier.
func (rl *RateLimiter) Limit(identifier IdentifierFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limiter == nil || identifier == nil {
			c.Next()
			return
		}

		key, ok := identifier(c)
		if !ok {
			c.Next()
			return
		}

		decision, err := rl.limiter.Check(c.Request.Context(), key)
		if err != nil {
			rl.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retrySeconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retrySeconds < 0 {
				retrySeconds = 0
			}
			c.Writer.Header().Set("Retry-After", strconv.Itoa(retrySeconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests, please try again later",
				"retryAfter": retrySeconds,
				"traceId":    GetTraceID(c),
			})
			return
		}

		c.Next()
	}
}
