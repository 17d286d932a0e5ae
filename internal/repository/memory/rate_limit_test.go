package memory

import (
	"context"
	"testing"
	"time"
)

func TestCheckThreshold(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRateLimitRepository(15*time.Minute, 5).WithClock(func() time.Time { return current })
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
	if decision.RetryAfter != 15*time.Minute {
		t.Fatalf("expected 15m retry-after, got %v", decision.RetryAfter)
	}
}

func TestWindowRollsOver(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRateLimitRepository(15*time.Minute, 5).WithClock(func() time.Time { return current })
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	current = current.Add(15*time.Minute + time.Second)

	decision, err := repo.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check after window: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected fresh window after expiry")
	}
	if decision.Remaining != 4 {
		t.Fatalf("expected remaining 4 in new window, got %d", decision.Remaining)
	}
}

func TestRetryAfterShrinks(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRateLimitRepository(15*time.Minute, 5).WithClock(func() time.Time { return current })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	current = current.Add(10 * time.Minute)

	decision, err := repo.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected denial inside window")
	}
	if decision.RetryAfter != 5*time.Minute {
		t.Fatalf("expected 5m retry-after, got %v", decision.RetryAfter)
	}
}

func TestResetClearsCounter(t *testing.T) {
	repo := NewRateLimitRepository(15*time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = repo.Check(ctx, "alice@example.com")
	}

	if err := repo.Reset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	decision, _ := repo.Check(ctx, "alice@example.com")
	if !decision.Allowed {
		t.Fatal("expected fresh window after reset")
	}
}

func TestSweepDropsExpiredOnly(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRateLimitRepository(15*time.Minute, 5).WithClock(func() time.Time { return current })
	ctx := context.Background()

	_, _ = repo.Check(ctx, "stale@example.com")
	current = current.Add(20 * time.Minute)
	_, _ = repo.Check(ctx, "fresh@example.com")

	if removed := repo.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept record, got %d", removed)
	}

	// The fresh record must keep its count.
	decision, _ := repo.Check(ctx, "fresh@example.com")
	if decision.Remaining != 3 {
		t.Fatalf("expected remaining 3, got %d", decision.Remaining)
	}
}
