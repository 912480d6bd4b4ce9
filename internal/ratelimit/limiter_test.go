package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tollgate/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis, *clock.FakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	return NewLimiter(client, clk, zap.NewNop()), mr, clk
}

func TestAllowUpToClassLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, ClassAI, "org-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d within quota", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.Allow(ctx, ClassAI, "org-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestIdentitiesAreIsolated(t *testing.T) {
	limiter, _, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, ClassAI, "org-1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := limiter.Allow(ctx, ClassAI, "org-2")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "a saturated neighbor does not affect other identities")
}

func TestClassesAreIsolated(t *testing.T) {
	limiter, _, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, ClassAuth, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	denied, err := limiter.Allow(ctx, ClassAuth, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	result, err := limiter.Allow(ctx, ClassAPI, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRejectionReportsZeroRemaining(t *testing.T) {
	limiter, _, clk := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, ClassAI, "org-1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	// Just inside the next window the previous one still weighs almost
	// fully, so the request is denied while the weighted count floors
	// below the limit. The response must still read as exhausted.
	clk.Advance(61 * time.Second)

	result, err := limiter.Allow(ctx, ClassAI, "org-1")
	require.NoError(t, err)
	require.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestQuotaRecoversInNextWindow(t *testing.T) {
	limiter, _, clk := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.Allow(ctx, ClassAPI, "org-1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
	denied, err := limiter.Allow(ctx, ClassAPI, "org-1")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	// Two full windows later the previous window's weight is gone.
	clk.Advance(20 * time.Second)

	result, err := limiter.Allow(ctx, ClassAPI, "org-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestFailOpenWithoutRedis(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(nil, clk, zap.NewNop())

	for i := 0; i < 100; i++ {
		result, err := limiter.Allow(context.Background(), ClassAuth, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestFailOpenWhenRedisUnavailable(t *testing.T) {
	limiter, mr, _ := newTestLimiter(t)
	mr.Close()

	result, err := limiter.Allow(context.Background(), ClassAPI, "org-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRuleFallsBackToAPIClass(t *testing.T) {
	limit, window := Rule(Class("unknown"))
	assert.Equal(t, 10, limit)
	assert.Equal(t, 10*time.Second, window)
}
