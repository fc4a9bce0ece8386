package models

import (
	"gorm.io/gorm"
)

// Guarantor represents the person backing a client's credits
type Guarantor struct {
	gorm.Model
	ClientID uint   `gorm:"not null;index"`
	Client   Client `gorm:"foreignKey:ClientID"`
	Name     string `gorm:"not null;size:100"`
	Document string `gorm:"not null;size:30"`
	Phone    string `gorm:"size:30"`
	Address  string `gorm:"size:255"`
}

// TableName returns the table name for the Guarantor model
func (Guarantor) TableName() string {
	return "guarantors"
}
