package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app message delivered to a user
type Notification struct {
	gorm.Model
	UserID  uint       `gorm:"not null;index"`
	User    User       `gorm:"foreignKey:UserID"`
	Title   string     `gorm:"not null;size:100"`
	Message string     `gorm:"size:500"`
	Link    string     `gorm:"size:255"`
	Payload string     `gorm:"type:text"` // structured JSON payload
	ReadAt  *time.Time
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
