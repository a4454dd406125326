package ratelimit

import (
	"context"
)

const callBudgetKey = "verification-calls"

// CallBudget caps outbound verification calls across all workers.
type CallBudget struct {
	limiter RateLimiter
	config  RateLimitConfig
}

func NewCallBudget(limiter RateLimiter, perHour, perDay int) *CallBudget {
	return &CallBudget{
		limiter: limiter,
		config:  RateLimitConfig{PerHour: perHour, PerDay: perDay},
	}
}

// Allow consumes one call from the budget when there is room.
func (b *CallBudget) Allow(ctx context.Context) (bool, error) {
	return b.limiter.Allow(ctx, callBudgetKey, b.config)
}
