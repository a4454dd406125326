package outreach

import (
	"fmt"
	"time"

	"vendorflow/internal/domain/shared"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/id"
)

// DefaultExpiry is how long a vendor has to answer a solicitation.
const DefaultExpiry = 72 * time.Hour

type Status string

const (
	StatusSent      Status = "sent"
	StatusExpired   Status = "expired"
	StatusResponded Status = "responded"
)

// Statuses only move forward. A late reply may still turn an expired
// outreach into responded.
var statusRank = map[Status]int{
	StatusSent:      0,
	StatusExpired:   1,
	StatusResponded: 2,
}

func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// VendorOutreach records one solicitation email sent to a vendor for a ticket.
type VendorOutreach struct {
	id          string
	ticketID    string
	vendorID    string
	emailID     string
	emailSentAt time.Time
	expiresAt   time.Time
	status      Status
	respondedAt *time.Time
}

func NewVendorOutreach(ticketID, vendorID, emailID string, sentAt time.Time, expiry time.Duration) (*VendorOutreach, error) {
	if ticketID == "" || vendorID == "" {
		return nil, fmt.Errorf("ticket ID and vendor ID are required")
	}
	if emailID == "" {
		return nil, fmt.Errorf("email ID is required")
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &VendorOutreach{
		id:          id.New(),
		ticketID:    ticketID,
		vendorID:    vendorID,
		emailID:     emailID,
		emailSentAt: sentAt,
		expiresAt:   sentAt.Add(expiry),
		status:      StatusSent,
	}, nil
}

func ReconstructVendorOutreach(
	outreachID string,
	ticketID string,
	vendorID string,
	emailID string,
	emailSentAt time.Time,
	expiresAt time.Time,
	status Status,
	respondedAt *time.Time,
) (*VendorOutreach, error) {
	if outreachID == "" {
		return nil, fmt.Errorf("outreach ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid outreach status: %s", status)
	}

	return &VendorOutreach{
		id:          outreachID,
		ticketID:    ticketID,
		vendorID:    vendorID,
		emailID:     emailID,
		emailSentAt: emailSentAt,
		expiresAt:   expiresAt,
		status:      status,
		respondedAt: respondedAt,
	}, nil
}

func (o *VendorOutreach) ID() string {
	return o.id
}

func (o *VendorOutreach) TicketID() string {
	return o.ticketID
}

func (o *VendorOutreach) VendorID() string {
	return o.vendorID
}

func (o *VendorOutreach) EmailID() string {
	return o.emailID
}

func (o *VendorOutreach) EmailSentAt() time.Time {
	return o.emailSentAt
}

func (o *VendorOutreach) ExpiresAt() time.Time {
	return o.expiresAt
}

func (o *VendorOutreach) Status() Status {
	return o.status
}

func (o *VendorOutreach) RespondedAt() *time.Time {
	return o.respondedAt
}

// IsActive reports whether the vendor has not answered yet.
func (o *VendorOutreach) IsActive() bool {
	return o.status != StatusResponded
}

// MarkResponded is idempotent.
func (o *VendorOutreach) MarkResponded(at time.Time) bool {
	if !o.status.CanTransitionTo(StatusResponded) {
		return false
	}
	o.status = StatusResponded
	o.respondedAt = &at
	return true
}

// Expire moves a sent outreach to expired once its deadline has passed.
func (o *VendorOutreach) Expire(now time.Time) bool {
	if o.status != StatusSent || !shared.IsExpired(&o.expiresAt, now) {
		return false
	}
	o.status = StatusExpired
	return true
}

// ResponseHours is the time the vendor took to answer, when it has.
func (o *VendorOutreach) ResponseHours(receivedAt time.Time) float64 {
	return biztime.HoursBetween(o.emailSentAt, receivedAt)
}
