package models

import "time"

type VendorQuoteModel struct {
	ID                    string `gorm:"primaryKey;size:64"`
	TicketID              string `gorm:"size:64;not null;index"`
	VendorID              string `gorm:"size:64;not null;index"`
	VendorOutreachID      string `gorm:"size:64"`
	Price                 int64  `gorm:"not null"`
	Currency              string `gorm:"size:3;not null;default:USD"`
	EstimatedDeliveryTime int    `gorm:"not null"`
	ScheduledDate         *time.Time
	FixDuration           *int
	Ratings               *float64
	Notes                 string `gorm:"type:text"`
	ResponseText          string `gorm:"type:text"`
	ResponseReceivedAt    *time.Time
	Status                string `gorm:"size:20;not null;index"`
	Score                 *float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (VendorQuoteModel) TableName() string {
	return "vendor_quotes"
}
