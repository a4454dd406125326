package ticket

import (
	"fmt"
	"time"

	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/id"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// ConversationMessage is one email in a ticket's vendor thread.
type ConversationMessage struct {
	id              string
	ticketID        string
	vendorID        string
	direction       Direction
	fromAddress     string
	toAddress       string
	subject         string
	body            string
	providerEmailID string
	createdAt       time.Time
}

func NewConversationMessage(
	ticketID string,
	vendorID string,
	direction Direction,
	fromAddress string,
	toAddress string,
	subject string,
	body string,
	providerEmailID string,
) (*ConversationMessage, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid direction: %s", direction)
	}
	if body == "" && subject == "" {
		return nil, fmt.Errorf("message has neither subject nor body")
	}

	return &ConversationMessage{
		id:              id.New(),
		ticketID:        ticketID,
		vendorID:        vendorID,
		direction:       direction,
		fromAddress:     fromAddress,
		toAddress:       toAddress,
		subject:         subject,
		body:            body,
		providerEmailID: providerEmailID,
		createdAt:       biztime.NowUTC(),
	}, nil
}

func ReconstructConversationMessage(
	messageID string,
	ticketID string,
	vendorID string,
	direction Direction,
	fromAddress string,
	toAddress string,
	subject string,
	body string,
	providerEmailID string,
	createdAt time.Time,
) (*ConversationMessage, error) {
	if messageID == "" {
		return nil, fmt.Errorf("message ID is required")
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid direction: %s", direction)
	}

	return &ConversationMessage{
		id:              messageID,
		ticketID:        ticketID,
		vendorID:        vendorID,
		direction:       direction,
		fromAddress:     fromAddress,
		toAddress:       toAddress,
		subject:         subject,
		body:            body,
		providerEmailID: providerEmailID,
		createdAt:       createdAt,
	}, nil
}

func (m *ConversationMessage) ID() string {
	return m.id
}

func (m *ConversationMessage) TicketID() string {
	return m.ticketID
}

// VendorID is empty for messages from unknown senders.
func (m *ConversationMessage) VendorID() string {
	return m.vendorID
}

func (m *ConversationMessage) Direction() Direction {
	return m.direction
}

func (m *ConversationMessage) FromAddress() string {
	return m.fromAddress
}

func (m *ConversationMessage) ToAddress() string {
	return m.toAddress
}

func (m *ConversationMessage) Subject() string {
	return m.subject
}

func (m *ConversationMessage) Body() string {
	return m.body
}

func (m *ConversationMessage) ProviderEmailID() string {
	return m.providerEmailID
}

func (m *ConversationMessage) CreatedAt() time.Time {
	return m.createdAt
}
