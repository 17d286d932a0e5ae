package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	database  port.Pinger
	cache     port.Pinger
}

// HealthOption configures optional dependency checks.
type HealthOption func(*HealthHandler)

// WithDatabaseCheck registers the database readiness probe.
func WithDatabaseCheck(database port.Pinger) HealthOption {
	return func(h *HealthHandler) {
		h.database = database
	}
}

// WithCacheCheck registers the cache readiness probe.
func WithCacheCheck(cache port.Pinger) HealthOption {
	return func(h *HealthHandler) {
		h.cache = cache
	}
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	handler := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// Status reports process liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness pings the registered dependencies and reports 503 when any fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := make(map[string]string)
	healthy := true

	if h.database != nil {
		if err := h.database.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unavailable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			checks["cache"] = "unavailable"
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, HealthResponse{
		Status:    overall,
		StartedAt: h.startedAt,
		Checks:    checks,
	})
}
