package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	config := RateLimitConfig{PerMinute: 3}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "key-minute", config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "key-minute", config)
	require.NoError(t, err)
	assert.False(t, allowed)

	count, err := limiter.Count(ctx, "key-minute", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "denied requests are not recorded")
}

func TestRedisRateLimiter_TightestWindowWins(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	config := RateLimitConfig{PerHour: 2, PerDay: 10}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "key-hour", config)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, "key-hour", config)
	require.NoError(t, err)
	assert.False(t, allowed)

	daily, err := limiter.Count(ctx, "key-hour", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), daily)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	config := RateLimitConfig{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "key-reset", config)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "key-reset"))

	allowed, err = limiter.Allow(ctx, "key-reset", config)
	require.NoError(t, err)
	assert.True(t, allowed)
}

type fakeLimiter struct {
	calls  int
	config RateLimitConfig
	allow  bool
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error) {
	f.calls++
	f.config = config
	return f.allow, nil
}

func (f *fakeLimiter) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	return int64(f.calls), nil
}

func (f *fakeLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

func TestCallBudget_Allow(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	budget := NewCallBudget(limiter, 20, 100)

	allowed, err := budget.Allow(context.Background())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, RateLimitConfig{PerHour: 20, PerDay: 100}, limiter.config)
}
