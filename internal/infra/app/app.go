package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/config"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/database"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/logger"
	redisinfra "github.com/anmol-chhetri-G/Security-Web/internal/infra/redis"
	"github.com/anmol-chhetri-G/Security-Web/internal/infra/security"
	memoryrepo "github.com/anmol-chhetri-G/Security-Web/internal/repository/memory"
	postgresrepo "github.com/anmol-chhetri-G/Security-Web/internal/repository/postgres"
	redisrepo "github.com/anmol-chhetri-G/Security-Web/internal/repository/redis"
	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/middleware"
	"github.com/anmol-chhetri-G/Security-Web/internal/transport/http/routes"
	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

type Application struct {
	cfg           *config.AppConfig
	engine        *gin.Engine
	logger        *zap.Logger
	pool          *pgxpool.Pool
	redis         *redisinfra.Client
	sessions      *usecase.SessionService
	memoryLimiter *memoryrepo.RateLimitRepository
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.App.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	app := &Application{
		cfg:    cfg,
		logger: log,
		pool:   pool,
	}

	// The login throttle is backed by Redis when configured and falls back
	// to the in-process store otherwise. Both enforce the same fixed window.
	var limiter port.LoginRateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient
		limiter = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.FixedWindowConfig{
			KeyPrefix:   "secweb:login-limit",
			Window:      cfg.Auth.RateLimitWindow,
			MaxAttempts: cfg.Auth.RateLimitMaxAttempts,
		})
	} else {
		memoryLimiter := memoryrepo.NewRateLimitRepository(cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitMaxAttempts)
		app.memoryLimiter = memoryLimiter
		limiter = memoryLimiter
	}

	repos := postgresrepo.NewRepositories(pool)

	sessionService := usecase.NewSessionService(repos.Sessions, repos.Users, cfg.Auth.SessionTTL)
	lockout := usecase.NewLockoutTracker(repos.Users, cfg.Auth.LockoutMaxAttempts, cfg.Auth.LockoutDuration)
	authService := usecase.NewAuthService(repos.Users, sessionService, codec, hasher, limiter, lockout, pool, log)

	lookupClient := &http.Client{Timeout: cfg.Lookup.HTTPTimeout}
	lookupService := usecase.NewLookupService(lookupClient, cfg.Lookup.WhoisAPIKey, log)
	feedbackService := usecase.NewFeedbackService(repos.Feedback, log)
	fileScanService := usecase.NewFileScanService(log)

	app.sessions = sessionService

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	var cache port.Pinger
	if app.redis != nil {
		cache = app.redis
	}

	app.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
		RateLimiter: middleware.NewRateLimiter(limiter, log),
		Database:    pool,
		Cache:       cache,
		Services: routes.ServiceSet{
			Auth:     authService,
			Lookup:   lookupService,
			Feedback: feedbackService,
			FileScan: fileScanService,
		},
	})

	return app, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	go a.runSessionSweep(sweepCtx)
	if a.memoryLimiter != nil {
		go a.runLimiterSweep(sweepCtx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting Security-Web API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// runSessionSweep deactivates expired sessions on the configured interval.
func (a *Application) runSessionSweep(ctx context.Context) {
	interval := a.cfg.Auth.SessionSweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := a.sessions.SweepExpired(ctx)
			if err != nil {
				a.logger.Error("session sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				a.logger.Info("expired sessions swept", zap.Int("count", count))
			}
		}
	}
}

// runLimiterSweep drops expired in-memory rate limit windows.
func (a *Application) runLimiterSweep(ctx context.Context) {
	interval := a.cfg.Auth.RateLimitSweep
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.memoryLimiter.Sweep(); removed > 0 {
				a.logger.Debug("rate limit windows swept", zap.Int("count", removed))
			}
		}
	}
}
