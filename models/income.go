package models

import (
	"time"

	"gorm.io/gorm"
)

// Income represents extra money a seller received outside collections
type Income struct {
	gorm.Model
	UserID      uint      `gorm:"not null;index"`
	User        User      `gorm:"foreignKey:UserID"`
	Amount      float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`
	Date        time.Time `gorm:"type:date;not null;index"`
}

// TableName returns the table name for the Income model
func (Income) TableName() string {
	return "incomes"
}
