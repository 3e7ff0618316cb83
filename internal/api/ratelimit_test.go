package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFixedWindow(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	w := newFixedWindow(client, "rate:test", 2, time.Hour)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 10, 42, 0, 0, time.UTC) }
	assert.Equal(t, "rate:test:u1:1772359200", w.key("u1"))

	for i, want := range []bool{true, true, false} {
		allowed, err := w.allow(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
	}
	allowed, err := w.allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, time.Hour+time.Second, mr.TTL(w.key("u1")))

	w.now = func() time.Time { return time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC) }
	allowed, err = w.allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindow_RedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	allowed, err := newFixedWindow(client, "rate:test", 1, time.Hour).allow(context.Background(), "u1")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestLoginGuard(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	guard := newLoginGuard(client, 0, 2, time.Minute)

	require.NoError(t, guard.admit(ctx, "10.0.0.1", "Ada"))
	require.NoError(t, guard.recordFailure(ctx, "Ada"))
	require.NoError(t, guard.admit(ctx, "10.0.0.1", "ada"))
	require.NoError(t, guard.recordFailure(ctx, " ADA "))
	assert.ErrorIs(t, guard.admit(ctx, "10.0.0.2", "ada"), errAccountLocked)
	assert.True(t, mr.Exists(lockKey("ada")))

	guard.reset(ctx, "Ada")
	assert.NoError(t, guard.admit(ctx, "10.0.0.1", "ada"))
	assert.False(t, mr.Exists(failuresKey("ada")))
}

func TestLoginGuard_Throttle(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	guard := newLoginGuard(client, 2, 0, time.Minute)

	require.NoError(t, guard.admit(ctx, "10.0.0.1", "bob"))
	require.NoError(t, guard.admit(ctx, "10.0.0.1", "bob"))
	assert.ErrorIs(t, guard.admit(ctx, "10.0.0.1", "bob"), errLoginThrottled)
	assert.NoError(t, guard.admit(ctx, "10.0.0.9", "bob"))
}
