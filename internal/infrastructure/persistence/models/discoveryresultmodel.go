package models

import (
	"time"

	"gorm.io/datatypes"
)

// DiscoveryResultModel stores the candidate list of one discovery run as JSON.
type DiscoveryResultModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	TicketID    string `gorm:"size:64;not null;index"`
	Source      string `gorm:"size:20;not null"`
	Status      string `gorm:"size:20;not null"`
	Candidates  datatypes.JSON
	TimeoutNote string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (DiscoveryResultModel) TableName() string {
	return "discovery_results"
}
