package models

import (
	"time"

	"gorm.io/datatypes"
)

type VendorCallLogModel struct {
	CallID        string `gorm:"primaryKey;size:128"`
	TicketID      string `gorm:"size:64;index"`
	VendorID      string `gorm:"size:64;index"`
	PhoneNumber   string `gorm:"size:50;not null"`
	OriginalEmail string `gorm:"size:255"`
	Status        string `gorm:"size:20;not null;index"`
	Transcript    string `gorm:"type:text"`
	VerifiedEmail string `gorm:"size:255"`
	EndedReason   string `gorm:"size:100"`
	RecordingURL  string `gorm:"size:1000"`
	Analysis      datatypes.JSON
	PollAttempts  int    `gorm:"not null;default:0"`
	LastError     string `gorm:"size:500"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (VendorCallLogModel) TableName() string {
	return "vendor_call_logs"
}
