package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "addr")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		now = now.Add(10 * time.Second)
	}

	d, err := l.Allow(ctx, "addr")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	// 最早一次在 base，窗口 1 分钟，此刻 base+30s
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	other, _ := l.Allow(ctx, "other-addr")
	assert.True(t, other.Allowed)

	now = base.Add(time.Minute)
	d, _ = l.Allow(ctx, "addr")
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "rl:upload:", 2, time.Minute)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	now = now.Add(20 * time.Second)
	d, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	now = base.Add(time.Minute + time.Second)
	d, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestKeyedThrottle(t *testing.T) {
	th := NewKeyedThrottle(1, 2)

	ok, _ := th.Allow("voter")
	assert.True(t, ok)
	ok, _ = th.Allow("voter")
	assert.True(t, ok)
	ok, wait := th.Allow("voter")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = th.Allow("another-voter")
	assert.True(t, ok)
}

func TestAddressKey(t *testing.T) {
	a := AddressKey("salt", "203.0.113.7")
	assert.Len(t, a, 32)
	assert.Equal(t, a, AddressKey("salt", "203.0.113.7"))
	assert.NotEqual(t, a, AddressKey("other-salt", "203.0.113.7"))
	assert.NotEqual(t, a, AddressKey("salt", "203.0.113.8"))
	assert.Len(t, AddressKey("", "203.0.113.7"), 32)
}
