package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	webhookKeyPrefix = "webhook:"
	// DefaultWebhookDedupTTL covers the provider's redelivery window.
	DefaultWebhookDedupTTL = 24 * time.Hour
)

// WebhookDeduplicator drops webhook deliveries that were already accepted.
type WebhookDeduplicator struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewWebhookDeduplicator(client redis.UniversalClient, ttl time.Duration) *WebhookDeduplicator {
	if ttl <= 0 {
		ttl = DefaultWebhookDedupTTL
	}
	return &WebhookDeduplicator{client: client, ttl: ttl}
}

// FirstSeen atomically claims the delivery id. It returns false when another
// request already claimed it within the TTL. An empty id is always first seen.
func (d *WebhookDeduplicator) FirstSeen(ctx context.Context, deliveryID string) (bool, error) {
	if deliveryID == "" {
		return true, nil
	}

	acquired, err := d.client.SetNX(ctx, webhookKeyPrefix+deliveryID, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook delivery: %w", err)
	}
	return acquired, nil
}

// Forget releases a claimed delivery id so the provider's retry is processed.
// Used when handling failed after the claim.
func (d *WebhookDeduplicator) Forget(ctx context.Context, deliveryID string) error {
	if deliveryID == "" {
		return nil
	}
	if err := d.client.Del(ctx, webhookKeyPrefix+deliveryID).Err(); err != nil {
		return fmt.Errorf("failed to release webhook delivery: %w", err)
	}
	return nil
}
