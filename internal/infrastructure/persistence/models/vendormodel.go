package models

import "time"

type VendorModel struct {
	ID             string `gorm:"primaryKey;size:64"`
	BusinessName   string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	Phone          string `gorm:"size:50"`
	Specialty      string `gorm:"size:100;index"`
	Address        string `gorm:"size:500"`
	Rating         *float64
	EmailStatus    string `gorm:"size:20;not null;default:valid"`
	LastEmailError string `gorm:"size:500"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (VendorModel) TableName() string {
	return "vendors"
}
