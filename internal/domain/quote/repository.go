package quote

import (
	"context"
	"time"
)

// Repository persists vendor quotes. GetByID returns nil, nil when missing.
type Repository interface {
	GetByID(ctx context.Context, quoteID string) (*VendorQuote, error)
	// ListByTicket returns quotes in creation order.
	ListByTicket(ctx context.Context, ticketID string) ([]*VendorQuote, error)
	Save(ctx context.Context, q *VendorQuote) error
	Update(ctx context.Context, q *VendorQuote) error
	UpdateScores(ctx context.Context, scores map[string]float64) error
	// ListReceivedBefore returns received quotes whose reply arrived before cutoff.
	ListReceivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*VendorQuote, error)
}
