package calllog

import "context"

// Repository persists call logs keyed by the provider call id.
// GetByCallID returns nil, nil when missing.
type Repository interface {
	GetByCallID(ctx context.Context, callID string) (*VendorCallLog, error)
	ListPending(ctx context.Context, limit int) ([]*VendorCallLog, error)
	Save(ctx context.Context, l *VendorCallLog) error
	Update(ctx context.Context, l *VendorCallLog) error
}
