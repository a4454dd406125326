package discovery

import "context"

// Repository persists discovery results. GetByID returns nil, nil when missing.
type Repository interface {
	GetByID(ctx context.Context, resultID string) (*DiscoveryResult, error)
	Save(ctx context.Context, r *DiscoveryResult) error
	Update(ctx context.Context, r *DiscoveryResult) error
}
