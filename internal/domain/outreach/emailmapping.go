package outreach

import (
	"fmt"
	"time"
)

type DeliveryStatus string

const (
	DeliverySent       DeliveryStatus = "sent"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryOpened     DeliveryStatus = "opened"
	DeliveryClicked    DeliveryStatus = "clicked"
	DeliveryBounced    DeliveryStatus = "bounced"
	DeliveryComplained DeliveryStatus = "complained"
)

// Engagement statuses advance by rank and never override a failure.
// Failures override engagement, and a complaint overrides a bounce.
var deliveryRank = map[DeliveryStatus]int{
	DeliverySent:       0,
	DeliveryDelivered:  1,
	DeliveryOpened:     2,
	DeliveryClicked:    3,
	DeliveryBounced:    10,
	DeliveryComplained: 11,
}

func (s DeliveryStatus) IsValid() bool {
	_, ok := deliveryRank[s]
	return ok
}

func (s DeliveryStatus) IsFailure() bool {
	return s == DeliveryBounced || s == DeliveryComplained
}

// EmailMapping correlates a provider email id with the ticket and vendor it was sent for.
type EmailMapping struct {
	emailID      string
	ticketID     string
	vendorID     string
	messageID    string
	status       DeliveryStatus
	lastEventAt  time.Time
	bounceReason string
}

func NewEmailMapping(emailID, ticketID, vendorID, messageID string, sentAt time.Time) (*EmailMapping, error) {
	if emailID == "" {
		return nil, fmt.Errorf("email ID is required")
	}
	if ticketID == "" || vendorID == "" {
		return nil, fmt.Errorf("ticket ID and vendor ID are required")
	}

	return &EmailMapping{
		emailID:     emailID,
		ticketID:    ticketID,
		vendorID:    vendorID,
		messageID:   messageID,
		status:      DeliverySent,
		lastEventAt: sentAt,
	}, nil
}

func ReconstructEmailMapping(
	emailID string,
	ticketID string,
	vendorID string,
	messageID string,
	status DeliveryStatus,
	lastEventAt time.Time,
	bounceReason string,
) (*EmailMapping, error) {
	if emailID == "" {
		return nil, fmt.Errorf("email ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid delivery status: %s", status)
	}

	return &EmailMapping{
		emailID:      emailID,
		ticketID:     ticketID,
		vendorID:     vendorID,
		messageID:    messageID,
		status:       status,
		lastEventAt:  lastEventAt,
		bounceReason: bounceReason,
	}, nil
}

func (m *EmailMapping) EmailID() string {
	return m.emailID
}

func (m *EmailMapping) TicketID() string {
	return m.ticketID
}

func (m *EmailMapping) VendorID() string {
	return m.vendorID
}

func (m *EmailMapping) MessageID() string {
	return m.messageID
}

func (m *EmailMapping) Status() DeliveryStatus {
	return m.status
}

func (m *EmailMapping) LastEventAt() time.Time {
	return m.lastEventAt
}

func (m *EmailMapping) BounceReason() string {
	return m.bounceReason
}

// Record applies a delivery event. Duplicates and out-of-order events leave the
// status unchanged; lastEventAt only moves forward.
func (m *EmailMapping) Record(status DeliveryStatus, at time.Time, reason string) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("invalid delivery status: %s", status)
	}

	changed := false
	if deliveryRank[status] > deliveryRank[m.status] {
		m.status = status
		changed = true
	}
	if status == DeliveryBounced && reason != "" && m.bounceReason == "" {
		m.bounceReason = reason
		changed = true
	}
	if at.After(m.lastEventAt) {
		m.lastEventAt = at
		changed = true
	}
	return changed, nil
}
