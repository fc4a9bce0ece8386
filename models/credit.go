package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditStatus represents the lifecycle status of a credit
type CreditStatus string

const (
	CreditStatusPending       CreditStatus = "Pendiente"
	CreditStatusNew           CreditStatus = "Nuevo"
	CreditStatusActive        CreditStatus = "Vigente"
	CreditStatusRenewed       CreditStatus = "Renovado"
	CreditStatusInactive      CreditStatus = "Inactivo"
	CreditStatusIrrecoverable CreditStatus = "Cartera Irrecuperable"
	CreditStatusSettled       CreditStatus = "Liquidado"
)

// PaymentFrequency determines how installment due dates are stepped
type PaymentFrequency string

const (
	FrequencyDaily    PaymentFrequency = "daily"
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

// NextDueDate steps a due date forward by one period
func (f PaymentFrequency) NextDueDate(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 15)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// Credit represents an issued microcredit
type Credit struct {
	gorm.Model
	ClientID           uint             `gorm:"not null;index"`
	Client             Client           `gorm:"foreignKey:ClientID"`
	CreditValue        float64          `gorm:"not null"`
	NumberInstallments int              `gorm:"not null"`
	TotalInterest      float64          `gorm:"not null"` // percentage over the principal
	PaymentFrequency   PaymentFrequency `gorm:"type:varchar(20);not null;default:'daily'"`
	FirstQuotaDate     time.Time        `gorm:"not null"`
	EndDate            time.Time        `gorm:"not null"` // due date of the last installment
	Status             CreditStatus     `gorm:"type:varchar(30);not null;default:'Pendiente';index"`
	RemainingAmount    float64          `gorm:"not null;default:0"`
	RenewedFromID      *uint            `gorm:"index"` // credit absorbed by this one
	RenewedToID        *uint            // credit that absorbed this one
	IrrecoverableAt    *time.Time       // when the credit was written off
	Installments       []Installment    `gorm:"foreignKey:CreditID"`
	Payments           []Payment        `gorm:"foreignKey:CreditID"`
}

// TableName returns the table name for the Credit model
func (Credit) TableName() string {
	return "credits"
}

// TotalWithInterest returns the principal plus the credit-level interest
func (c *Credit) TotalWithInterest() float64 {
	return c.CreditValue * (1 + c.TotalInterest/100)
}

// IsRenewal reports whether this credit originated from a renewal
func (c *Credit) IsRenewal() bool {
	return c.RenewedFromID != nil
}
