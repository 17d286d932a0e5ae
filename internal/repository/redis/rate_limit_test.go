package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRateLimitRepository(client, FixedWindowConfig{
		KeyPrefix:   "login",
		Window:      15 * time.Minute,
		MaxAttempts: 5,
	})
	return repo, srv
}

func TestCheckAllowsUpToLimit(t *testing.T) {
	repo, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := repo.Check(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("Check %d: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if decision.Remaining != 5-(i+1) {
			t.Fatalf("attempt %d: expected remaining %d, got %d", i+1, 5-(i+1), decision.Remaining)
		}
	}

	decision, err := repo.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check over limit: %v", err)
	}
	if decision.Allowed {
		t.Fatal("sixth attempt should be denied")
	}
	if decision.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", decision.RetryAfter)
	}
}

func TestCheckKeysAreIndependent(t *testing.T) {
	repo, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	decision, err := repo.Check(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("other identifier must not be throttled")
	}
}

func TestResetClearsCounter(t *testing.T) {
	repo, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	if err := repo.Reset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	decision, err := repo.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check after reset: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected fresh window after reset")
	}
}

func TestWindowExpiry(t *testing.T) {
	repo, srv := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	srv.FastForward(16 * time.Minute)

	decision, err := repo.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check after window: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected window to have expired")
	}
}
