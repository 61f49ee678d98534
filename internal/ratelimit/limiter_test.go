package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLimiter creates a Limiter connected to a local Redis instance.
// Tests that call this helper require a running Redis on localhost:6379.
func newTestLimiter(t *testing.T, keys ...string) *Limiter {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	client.Del(ctx, keys...)
	t.Cleanup(func() {
		client.Del(ctx, keys...)
		client.Close()
	})
	return NewLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAllow_BlocksAfterLimit(t *testing.T) {
	rule := Rule{Key: "rl:test:", Limit: 3, Window: time.Minute}
	limiter := newTestLimiter(t, rule.Key+"test_user")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := limiter.Allow(ctx, "test_user", rule)
		if err != nil {
			t.Fatalf("Allow() #%d error: %v", i, err)
		}
		if !ok {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}

	ok, err := limiter.Allow(ctx, "test_user", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if ok {
		t.Error("expected fourth request to be rate limited")
	}

	remaining, err := limiter.Remaining(ctx, "test_user", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}
}

func TestRemaining_UnknownKeyIsFullLimit(t *testing.T) {
	rule := Rule{Key: "rl:test:", Limit: 7, Window: time.Minute}
	limiter := newTestLimiter(t, rule.Key+"test_fresh")

	remaining, err := limiter.Remaining(context.Background(), "test_fresh", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 7 {
		t.Errorf("expected 7 remaining, got %d", remaining)
	}
}

func TestAllow_FailsOpenWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	limiter := NewLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ok, err := limiter.Allow(context.Background(), "anyone", PostRule(1, time.Minute))
	if err == nil {
		t.Fatal("expected redis error")
	}
	if !ok {
		t.Error("expected request allowed when redis is unreachable")
	}
}

func TestAllow_DisabledRuleSkipsRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	limiter := NewLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ok, err := limiter.Allow(context.Background(), "anyone", PostRule(0, time.Minute))
	if err != nil || !ok {
		t.Errorf("expected allowed without error, got ok=%v err=%v", ok, err)
	}
}
