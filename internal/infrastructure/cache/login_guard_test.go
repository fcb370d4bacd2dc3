package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/shopwise/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{MaxAttempts: 3, Window: time.Minute, Lockout: 15 * time.Minute}

func newTestGuard(t *testing.T) (*LoginGuard, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLoginGuard(client, testLimits), server
}

func fail(g *LoginGuard, email string, n int) {
	for range n {
		g.RecordFailure(context.Background(), email)
	}
}

func TestLoginGuard_NilIsDisabled(t *testing.T) {
	var g *LoginGuard
	ctx := context.Background()

	assert.NoError(t, g.Check(ctx, "a@b.com"))
	assert.NotPanics(t, func() {
		g.RecordFailure(ctx, "a@b.com")
		g.Reset(ctx, "a@b.com")
	})
}

func TestLoginGuard_NoClientIsDisabled(t *testing.T) {
	g := NewLoginGuard(nil, testLimits)

	assert.NoError(t, g.Check(context.Background(), "a@b.com"))
}

func TestLoginGuard_FailsOpenWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()
	g := NewLoginGuard(client, testLimits)
	ctx := context.Background()

	g.RecordFailure(ctx, "a@b.com")
	assert.NoError(t, g.Check(ctx, "a@b.com"))
}

func TestKeys_NormalizeEmail(t *testing.T) {
	assert.Equal(t, "shopwise:login:fail:admin@shop.com", failuresKey(" Admin@Shop.com"))
	assert.Equal(t, "shopwise:login:lock:admin@shop.com", lockKey("ADMIN@SHOP.COM "))
}

func TestErrLocked_IsTooManyRequests(t *testing.T) {
	assert.ErrorIs(t, ErrLocked, domain.ErrTooManyRequests)
}

// ============================================
// Redis-backed Tests
// ============================================

func TestLoginGuard_LocksAfterMaxAttempts(t *testing.T) {
	g, server := newTestGuard(t)
	ctx := context.Background()

	fail(g, "ops@shop.com", 2)
	require.NoError(t, g.Check(ctx, "ops@shop.com"))

	fail(g, "OPS@shop.com", 1)
	err := g.Check(ctx, " ops@shop.com")

	require.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	assert.True(t, server.Exists(lockKey("ops@shop.com")))
	assert.Equal(t, testLimits.Lockout, server.TTL(lockKey("ops@shop.com")))
	assert.False(t, server.Exists(failuresKey("ops@shop.com")))

	// other emails are unaffected
	assert.NoError(t, g.Check(ctx, "root@shop.com"))
}

func TestLoginGuard_LockoutExpires(t *testing.T) {
	g, server := newTestGuard(t)
	ctx := context.Background()
	fail(g, "ops@shop.com", testLimits.MaxAttempts)
	require.ErrorIs(t, g.Check(ctx, "ops@shop.com"), ErrLocked)

	server.FastForward(testLimits.Lockout + time.Second)

	assert.NoError(t, g.Check(ctx, "ops@shop.com"))
}

func TestLoginGuard_FailuresOutsideWindowAreForgotten(t *testing.T) {
	g, server := newTestGuard(t)
	ctx := context.Background()
	fail(g, "ops@shop.com", testLimits.MaxAttempts-1)
	assert.Equal(t, testLimits.Window, server.TTL(failuresKey("ops@shop.com")))

	server.FastForward(testLimits.Window + time.Second)
	fail(g, "ops@shop.com", 1)

	assert.NoError(t, g.Check(ctx, "ops@shop.com"))
}

func TestLoginGuard_ResetClearsFailuresAndLock(t *testing.T) {
	g, server := newTestGuard(t)
	ctx := context.Background()

	fail(g, "ops@shop.com", testLimits.MaxAttempts-1)
	g.Reset(ctx, "ops@shop.com")
	assert.False(t, server.Exists(failuresKey("ops@shop.com")))
	fail(g, "ops@shop.com", 1)
	assert.NoError(t, g.Check(ctx, "ops@shop.com"))

	fail(g, "ops@shop.com", testLimits.MaxAttempts)
	require.ErrorIs(t, g.Check(ctx, "ops@shop.com"), ErrLocked)
	g.Reset(ctx, "ops@shop.com")

	assert.NoError(t, g.Check(ctx, "ops@shop.com"))
	assert.False(t, server.Exists(lockKey("ops@shop.com")))
	assert.False(t, server.Exists(failuresKey("ops@shop.com")))
}
