package models

import (
	"time"

	"gorm.io/datatypes"
)

// TicketModel is the persistence form of a maintenance ticket.
// Relationships are resolved by the application layer, there are no foreign keys.
type TicketModel struct {
	ID                    string `gorm:"primaryKey;size:64"`
	OwnerEmail            string `gorm:"size:255;not null"`
	Title                 string `gorm:"size:200;not null"`
	Description           string `gorm:"type:text"`
	Specialty             string `gorm:"size:100;index"`
	Tags                  datatypes.JSON
	Urgency               string `gorm:"size:20;not null"`
	Location              string `gorm:"size:255"`
	Status                string `gorm:"size:40;not null;index"`
	DiscoveryResultID     string `gorm:"size:64"`
	SelectedVendorID      string `gorm:"size:64"`
	SelectedVendorQuoteID string `gorm:"size:64"`
	QuoteStatus           string `gorm:"size:20"`
	ScheduledDate         *time.Time
	Embedding             datatypes.JSON
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (TicketModel) TableName() string {
	return "tickets"
}

// ConversationMessageModel is one email in a ticket's vendor thread.
type ConversationMessageModel struct {
	ID              string    `gorm:"primaryKey;size:64"`
	TicketID        string    `gorm:"size:64;not null;index:idx_conversation_ticket_vendor"`
	VendorID        string    `gorm:"size:64;index:idx_conversation_ticket_vendor"`
	Direction       string    `gorm:"size:10;not null"`
	FromAddress     string    `gorm:"size:255"`
	ToAddress       string    `gorm:"size:255"`
	Subject         string    `gorm:"size:500"`
	Body            string    `gorm:"type:text"`
	ProviderEmailID string    `gorm:"size:128"`
	CreatedAt       time.Time `gorm:"index"`
}

func (ConversationMessageModel) TableName() string {
	return "ticket_conversations"
}
