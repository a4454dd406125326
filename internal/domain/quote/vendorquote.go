package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/id"
)

var ErrInvalidTransition = errors.New("invalid quote status transition")

type Status string

const (
	StatusReceived Status = "received"
	StatusSelected Status = "selected"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var statusTransitions = map[Status][]Status{
	StatusReceived: {StatusSelected, StatusRejected, StatusExpired},
	StatusSelected: {StatusRejected},
	StatusRejected: {},
	StatusExpired:  {},
}

func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terms are the commercial details extracted from a vendor reply.
type Terms struct {
	Price                 int64
	Currency              string
	EstimatedDeliveryTime int
	ScheduledDate         *time.Time
	FixDuration           *int
	Ratings               *float64
	Notes                 string
}

type VendorQuote struct {
	id                 string
	ticketID           string
	vendorID           string
	vendorOutreachID   string
	terms              Terms
	responseText       string
	responseReceivedAt *time.Time
	status             Status
	score              *float64
	createdAt          time.Time
	updatedAt          time.Time
}

// NewVendorQuote creates a received quote from a complete extraction.
func NewVendorQuote(
	ticketID string,
	vendorID string,
	vendorOutreachID string,
	terms Terms,
	responseText string,
	responseReceivedAt time.Time,
) (*VendorQuote, error) {
	if ticketID == "" || vendorID == "" {
		return nil, fmt.Errorf("ticket ID and vendor ID are required")
	}
	if terms.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if terms.EstimatedDeliveryTime < 0 {
		return nil, fmt.Errorf("estimated delivery time cannot be negative")
	}
	if terms.Ratings != nil && (*terms.Ratings < 0 || *terms.Ratings > 5) {
		return nil, fmt.Errorf("ratings must be between 0 and 5")
	}
	terms.Currency = strings.ToUpper(strings.TrimSpace(terms.Currency))
	if terms.Currency == "" {
		terms.Currency = "USD"
	}

	now := biztime.NowUTC()
	return &VendorQuote{
		id:                 id.New(),
		ticketID:           ticketID,
		vendorID:           vendorID,
		vendorOutreachID:   vendorOutreachID,
		terms:              terms,
		responseText:       responseText,
		responseReceivedAt: &responseReceivedAt,
		status:             StatusReceived,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

func ReconstructVendorQuote(
	quoteID string,
	ticketID string,
	vendorID string,
	vendorOutreachID string,
	terms Terms,
	responseText string,
	responseReceivedAt *time.Time,
	status Status,
	score *float64,
	createdAt, updatedAt time.Time,
) (*VendorQuote, error) {
	if quoteID == "" {
		return nil, fmt.Errorf("quote ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid quote status: %s", status)
	}

	return &VendorQuote{
		id:                 quoteID,
		ticketID:           ticketID,
		vendorID:           vendorID,
		vendorOutreachID:   vendorOutreachID,
		terms:              terms,
		responseText:       responseText,
		responseReceivedAt: responseReceivedAt,
		status:             status,
		score:              score,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (q *VendorQuote) ID() string {
	return q.id
}

func (q *VendorQuote) TicketID() string {
	return q.ticketID
}

func (q *VendorQuote) VendorID() string {
	return q.vendorID
}

func (q *VendorQuote) VendorOutreachID() string {
	return q.vendorOutreachID
}

func (q *VendorQuote) Terms() Terms {
	return q.terms
}

func (q *VendorQuote) Price() int64 {
	return q.terms.Price
}

func (q *VendorQuote) Currency() string {
	return q.terms.Currency
}

func (q *VendorQuote) EstimatedDeliveryTime() int {
	return q.terms.EstimatedDeliveryTime
}

func (q *VendorQuote) ScheduledDate() *time.Time {
	return q.terms.ScheduledDate
}

func (q *VendorQuote) FixDuration() *int {
	return q.terms.FixDuration
}

func (q *VendorQuote) Ratings() *float64 {
	return q.terms.Ratings
}

func (q *VendorQuote) Notes() string {
	return q.terms.Notes
}

func (q *VendorQuote) ResponseText() string {
	return q.responseText
}

func (q *VendorQuote) ResponseReceivedAt() *time.Time {
	return q.responseReceivedAt
}

func (q *VendorQuote) Status() Status {
	return q.status
}

func (q *VendorQuote) Score() *float64 {
	return q.score
}

func (q *VendorQuote) CreatedAt() time.Time {
	return q.createdAt
}

func (q *VendorQuote) UpdatedAt() time.Time {
	return q.updatedAt
}

func (q *VendorQuote) Select() error {
	return q.transition(StatusSelected)
}

func (q *VendorQuote) Reject() error {
	return q.transition(StatusRejected)
}

func (q *VendorQuote) Expire() error {
	return q.transition(StatusExpired)
}

// IsStale reports whether a received quote has gone unanswered for longer than validity.
func (q *VendorQuote) IsStale(now time.Time, validity time.Duration) bool {
	if q.status != StatusReceived || q.responseReceivedAt == nil || validity <= 0 {
		return false
	}
	return !now.Before(q.responseReceivedAt.Add(validity))
}

// SetScore stores the ranking score. Status is untouched.
func (q *VendorQuote) SetScore(score float64) {
	q.score = &score
	q.updatedAt = biztime.NowUTC()
}

func (q *VendorQuote) transition(next Status) error {
	if q.status == next {
		return nil
	}
	if !q.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.status, next)
	}
	q.status = next
	q.updatedAt = biztime.NowUTC()
	return nil
}
