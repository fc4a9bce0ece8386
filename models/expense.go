package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense represents money a seller spent during a business day
type Expense struct {
	gorm.Model
	UserID      uint      `gorm:"not null;index"`
	User        User      `gorm:"foreignKey:UserID"`
	Amount      float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`
	Date        time.Time `gorm:"type:date;not null;index"`
}

// TableName returns the table name for the Expense model
func (Expense) TableName() string {
	return "expenses"
}
