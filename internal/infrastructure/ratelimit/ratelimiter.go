package ratelimit

import (
	"context"
	"time"
)

// RateLimitConfig caps events per sliding window. A zero limit disables that window.
type RateLimitConfig struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

func (c RateLimitConfig) windows() []window {
	return []window{
		{time.Minute, c.PerMinute},
		{time.Hour, c.PerHour},
		{24 * time.Hour, c.PerDay},
	}
}

type window struct {
	duration time.Duration
	limit    int
}

type RateLimiter interface {
	// Allow records one event under key when every window has room.
	// Denied events are not recorded.
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
	Count(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
