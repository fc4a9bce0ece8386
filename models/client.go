package models

import (
	"gorm.io/gorm"
)

// Client represents a borrower managed by a seller
type Client struct {
	gorm.Model
	Name       string      `gorm:"not null;size:100"`
	Document   string      `gorm:"not null;size:30;index"`
	Phone      string      `gorm:"size:30"`
	Address    string      `gorm:"size:255"`
	City       string      `gorm:"size:60"`
	SellerID   uint        `gorm:"not null;index"`
	Seller     User        `gorm:"foreignKey:SellerID"`
	Guarantors []Guarantor `gorm:"foreignKey:ClientID"`
	Credits    []Credit    `gorm:"foreignKey:ClientID"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// DisplayName returns the client name or a placeholder when empty
func (c *Client) DisplayName() string {
	if c == nil || c.Name == "" {
		return "N/A"
	}
	return c.Name
}
