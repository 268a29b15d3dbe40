package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewRedisWithClient(client, nil), srv
}

func TestRedisSetGet(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "features:conv:abc"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "features:conv:abc", `{"messageCount":3}`, time.Hour)

	value, ok := c.Get(ctx, "features:conv:abc")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if value != `{"messageCount":3}` {
		t.Fatalf("unexpected cached value: %s", value)
	}
}

func TestRedisTTLExpiry(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "features:market:austin", "{}", time.Minute)
	srv.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "features:market:austin"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestRedisGetAfterServerStop(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Hour)
	srv.Close()

	// A dead server must read as a miss, never an error to the caller.
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss when server is down")
	}
	c.Set(ctx, "k2", "v2", time.Hour) // must not panic
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOp()
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Hour)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("no-op cache must always miss")
	}
}
