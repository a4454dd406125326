package models

import "time"

type VendorOutreachModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	TicketID    string    `gorm:"size:64;not null;index:idx_outreach_ticket_vendor"`
	VendorID    string    `gorm:"size:64;not null;index:idx_outreach_ticket_vendor"`
	EmailID     string    `gorm:"size:128;not null"`
	EmailSentAt time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index:idx_outreach_status_expires"`
	Status      string    `gorm:"size:20;not null;index:idx_outreach_status_expires"`
	RespondedAt *time.Time
}

func (VendorOutreachModel) TableName() string {
	return "vendor_outreach"
}

// EmailMappingModel is keyed by the provider email id so delivery webhooks
// resolve with a primary key lookup.
type EmailMappingModel struct {
	EmailID      string    `gorm:"primaryKey;size:128"`
	TicketID     string    `gorm:"size:64;not null;index"`
	VendorID     string    `gorm:"size:64;not null"`
	MessageID    string    `gorm:"size:255;index"`
	Status       string    `gorm:"size:20;not null"`
	LastEventAt  time.Time `gorm:"not null"`
	BounceReason string    `gorm:"size:500"`
}

func (EmailMappingModel) TableName() string {
	return "email_mappings"
}
