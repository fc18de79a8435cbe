package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAllowWithinLimit(t *testing.T) {
	client := newTestRedis(t)
	limiter := New(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, current, err := limiter.Allow(ctx, "key1", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed, current=%d", i, current)
		}
	}
}

func TestAllowRejectsOverLimit(t *testing.T) {
	client := newTestRedis(t)
	limiter := New(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := limiter.Allow(ctx, "key2", 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	allowed, current, err := limiter.Allow(ctx, "key2", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected 4th request to be rejected")
	}
	if current != 4 {
		t.Fatalf("expected current count 4, got %d", current)
	}
}

func TestRecordAuthFailureBlocksAfterThreshold(t *testing.T) {
	client := newTestRedis(t)
	limiter := New(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < scanFailureThreshold-1; i++ {
		if err := limiter.RecordAuthFailure(ctx, "abc123456789"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	blocked, err := limiter.IsBlocked(ctx, "abc123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatalf("expected prefix to not be blocked below threshold")
	}

	if err := limiter.RecordAuthFailure(ctx, "abc123456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blocked, err = limiter.IsBlocked(ctx, "abc123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blocked {
		t.Fatalf("expected prefix to be blocked at threshold")
	}
}

func TestMonthlyUsageIncrementAndRead(t *testing.T) {
	client := newTestRedis(t)
	usage := NewMonthlyUsage(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := usage.Increment(ctx, "proj1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	current, err := usage.CurrentMonth(ctx, "proj1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current != 5 {
		t.Fatalf("expected 5, got %d", current)
	}
}

func TestExceedsTreatsZeroAsUnlimited(t *testing.T) {
	if Exceeds(1_000_000, 0) {
		t.Fatalf("expected ceiling 0 to mean unlimited")
	}
	if !Exceeds(100, 100) {
		t.Fatalf("expected current == ceiling to exceed")
	}
	if Exceeds(99, 100) {
		t.Fatalf("expected current < ceiling to not exceed")
	}
}
