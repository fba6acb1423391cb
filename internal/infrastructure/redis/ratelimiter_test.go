package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

func newLimiter(t *testing.T) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return NewFixedWindowLimiter(c), mr
}

func TestFixedWindowLimiter_DeniesOverLimit(t *testing.T) {
	l, _ := newLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "otp", "203.0.113.9", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, d.Remaining)
		assert.Equal(t, i, d.Count)
	}

	d, err := l.Allow(ctx, "otp", "203.0.113.9", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestFixedWindowLimiter_KeysAreIsolated(t *testing.T) {
	l, mr := newLimiter(t)
	ctx := context.Background()

	_, err := l.Allow(ctx, "auth", "a", 1, time.Minute)
	require.NoError(t, err)

	d, err := l.Allow(ctx, "auth", "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "otp", "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	assert.True(t, mr.Exists("identity:rl:auth:a"))
	assert.True(t, mr.Exists("identity:rl:otp:a"))
}

func TestFixedWindowLimiter_WindowExpires(t *testing.T) {
	l, mr := newLimiter(t)
	ctx := context.Background()

	_, err := l.Allow(ctx, "auth", "ip", 1, 10*time.Second)
	require.NoError(t, err)
	d, err := l.Allow(ctx, "auth", "ip", 1, 10*time.Second)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	mr.FastForward(11 * time.Second)

	d, err = l.Allow(ctx, "auth", "ip", 1, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestFixedWindowLimiter_Disabled_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.Allow(context.Background(), "auth", "k", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 10, d.Remaining)

	d, err = l.Allow(context.Background(), "auth", "k", -5, 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestFixedWindowLimiter_RedisDown_ReturnsTypedError(t *testing.T) {
	l, mr := newLimiter(t)
	mr.Close()

	_, err := l.Allow(context.Background(), "auth", "k", 1, time.Minute)
	require.Error(t, err)
	assert.Equal(t, "redis_unavailable", domain.CodeOf(err))
}
