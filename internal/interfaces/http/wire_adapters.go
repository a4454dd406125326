package http

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"vendorflow/internal/application/discovery/vendormatcher"
	"vendorflow/internal/application/outreach/emailsender"
	"vendorflow/internal/infrastructure/cache"
	"vendorflow/internal/infrastructure/config"
	"vendorflow/internal/infrastructure/email"
	"vendorflow/internal/infrastructure/firecrawl"
	"vendorflow/internal/infrastructure/llm"
	"vendorflow/internal/infrastructure/ratelimit"
	"vendorflow/internal/infrastructure/semantic"
	"vendorflow/internal/infrastructure/vapi"
	"vendorflow/internal/shared/services/markdown"
)

// adapters are the outbound provider clients behind the application ports.
type adapters struct {
	web        *firecrawl.Client
	caller     *vapi.Client
	matcher    vendormatcher.VendorMatcher
	llm        *llm.Client
	sender     emailsender.EmailSender
	renderer   markdown.Service
	limiter    *ratelimit.RedisRateLimiter
	callBudget *ratelimit.CallBudget
	dedup      *cache.WebhookDeduplicator
}

func newAdapters(cfg *config.Config, redisClient *redis.Client) (*adapters, error) {
	sender, err := email.NewSender(&cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to build email sender: %w", err)
	}

	limiter := ratelimit.NewRedisRateLimiter(redisClient)
	a := &adapters{
		web:        firecrawl.NewClient(&cfg.Firecrawl),
		caller:     vapi.NewClient(&cfg.Vapi),
		llm:        llm.NewClient(&cfg.LLM),
		sender:     sender,
		renderer:   markdown.NewService(),
		limiter:    limiter,
		callBudget: ratelimit.NewCallBudget(limiter, cfg.Pipeline.CallsPerHour, cfg.Pipeline.CallsPerDay),
		dedup:      cache.NewWebhookDeduplicator(redisClient, 0),
	}

	// Without an embeddings key discovery goes straight to the web.
	if cfg.Semantic.EmbeddingAPIKey != "" {
		a.matcher = semantic.NewMatcher(&cfg.Semantic)
	}
	return a, nil
}
