package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BlocksOverLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i)
	}

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestMemoryLimiter_KeysIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	d, _ := l.Allow(ctx, "1.1.1.1")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "1.1.1.1")
	assert.False(t, d.Allowed)

	d, _ = l.Allow(ctx, "2.2.2.2")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	d, _ := l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	clock = clock.Add(30 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)

	d, _ = l.Allow(ctx, "k")
	require.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	clock = clock.Add(31 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_StopIsIdempotent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

// Runs against a real server when REDIS_URL is set.
func TestRedisLimiter_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	l := NewRedisLimiter(client, 2, time.Minute)
	key := "test-" + uuid.NewString()
	defer client.Del(ctx, l.prefix+key)

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	count, err := client.ZCard(ctx, l.prefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
