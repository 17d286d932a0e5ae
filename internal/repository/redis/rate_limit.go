package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

// FixedWindowConfig defines configuration for the fixed window limiter.
type FixedWindowConfig struct {
	KeyPrefix   string
	Window      time.Duration
	MaxAttempts int
}

// RateLimitRepository enforces a fixed-window login limit backed by Redis.
// The counter key expires with the window, so no sweeping is needed.
type RateLimitRepository struct {
	client *redis.Client
	cfg    FixedWindowConfig
}

// NewRateLimitRepository constructs a repository using the provided Redis client and config.
func NewRateLimitRepository(client *redis.Client, cfg FixedWindowConfig) *RateLimitRepository {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &RateLimitRepository{client: client, cfg: cfg}
}

// Check consumes one attempt for the key and reports whether it is allowed.
func (r *RateLimitRepository) Check(ctx context.Context, key string) (port.RateLimitDecision, error) {
	redisKey := r.key(key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return port.RateLimitDecision{}, fmt.Errorf("redis incr: %w", err)
	}

	// First hit in a window owns setting the expiry.
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.cfg.Window).Err(); err != nil {
			return port.RateLimitDecision{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	if count > int64(r.cfg.MaxAttempts) {
		retryAfter, err := r.client.PTTL(ctx, redisKey).Result()
		if err != nil {
			return port.RateLimitDecision{}, fmt.Errorf("redis pttl: %w", err)
		}
		if retryAfter < 0 {
			retryAfter = r.cfg.Window
		}
		return port.RateLimitDecision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	remaining := r.cfg.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return port.RateLimitDecision{Allowed: true, Remaining: remaining}, nil
}

// Reset clears the counter after a successful login.
func (r *RateLimitRepository) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}

var _ port.LoginRateLimiter = (*RateLimitRepository)(nil)
