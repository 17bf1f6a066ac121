package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisFixedWindowLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedisFixedWindowLimiter(client, "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	fixed := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	ctx := context.Background()
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "ip-2") {
		t.Fatalf("other keys have their own quota")
	}

	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("next window should reset the count")
	}
}

func TestRedisFixedWindowLimiterFailClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedisFixedWindowLimiter(client, "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	mr.Close()
	if limiter.Allow(context.Background(), "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestLimiterRejectsBadSettings(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter(nil, "", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewMemoryFixedWindowLimiter(0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}

	// slots are counted in whole milliseconds
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	defer client.Close()
	if _, err := NewRedisFixedWindowLimiter(client, "", 1, time.Microsecond); err == nil {
		t.Fatalf("expected error for sub-millisecond redis window")
	}
	if _, err := NewMemoryFixedWindowLimiter(1, 999*time.Microsecond); err == nil {
		t.Fatalf("expected error for sub-millisecond memory window")
	}
	limiter, err := NewMemoryFixedWindowLimiter(1, time.Millisecond)
	if err != nil {
		t.Fatalf("one millisecond window should be accepted: %v", err)
	}
	limiter.Allow(context.Background(), "k")
}

func TestMemoryFixedWindowLimiter(t *testing.T) {
	limiter, err := NewMemoryFixedWindowLimiter(3, time.Minute)
	if err != nil {
		t.Fatalf("new memory limiter: %v", err)
	}
	fixed := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "ip-1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if limiter.Allow(ctx, "ip-1") {
		t.Fatalf("fourth request should be blocked")
	}

	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	if !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("next window should reset the count")
	}
}
