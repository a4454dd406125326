package outreach

import (
	"context"
	"time"
)

// Repository persists vendor outreach records. Lookups return nil, nil when missing.
type Repository interface {
	GetByID(ctx context.Context, outreachID string) (*VendorOutreach, error)
	GetByIDs(ctx context.Context, outreachIDs []string) (map[string]*VendorOutreach, error)
	// FindActive returns the newest outreach for the pair whose status is not responded.
	FindActive(ctx context.Context, ticketID, vendorID string) (*VendorOutreach, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*VendorOutreach, error)
	Save(ctx context.Context, o *VendorOutreach) error
	Update(ctx context.Context, o *VendorOutreach) error
}

type EmailMappingRepository interface {
	GetByEmailID(ctx context.Context, emailID string) (*EmailMapping, error)
	GetByMessageID(ctx context.Context, messageID string) (*EmailMapping, error)
	Save(ctx context.Context, m *EmailMapping) error
	Update(ctx context.Context, m *EmailMapping) error
}
