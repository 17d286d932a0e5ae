package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/config"
	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/handlers"
	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Lookup   *usecase.LookupService
	Feedback *usecase.FeedbackService
	FileScan *usecase.FileScanService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    port.Pinger
	Cache       port.Pinger
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithDatabaseCheck(deps.Database))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithCacheCheck(deps.Cache))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(authGroup)

		if deps.Services.Lookup != nil {
			lookupGroup := api.Group("/lookup")
			lookupGroup.Use(middleware.RequireAuth(deps.Services.Auth))
			if chain := buildLookupThrottle(deps); chain != nil {
				lookupGroup.Use(chain...)
			}
			handlers.NewLookupHandler(deps.Services.Lookup).RegisterRoutes(lookupGroup)
		}

		if deps.Services.FileScan != nil {
			scanGroup := api.Group("/file-scanner")
			scanGroup.Use(middleware.RequireAuth(deps.Services.Auth))
			handlers.NewFileScanHandler(deps.Services.FileScan).RegisterRoutes(scanGroup)
		}

		if deps.Services.Feedback != nil {
			feedbackGroup := api.Group("/feedback")
			handlers.NewFeedbackHandler(deps.Services.Feedback).RegisterRoutes(feedbackGroup, deps.Services.Auth)
		}
	}

	return r
}

// buildLookupThrottle applies the shared fixed-window limiter per client IP
// to the outbound-probing lookup endpoints.
func buildLookupThrottle(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.RateLimiter.Limit(middleware.ClientIPIdentifier())}
}
