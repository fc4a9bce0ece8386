package models

import (
	"time"
)

// PaymentInstallment records how much of a payment was applied to an installment
type PaymentInstallment struct {
	ID            uint        `gorm:"primaryKey;autoIncrement"`
	PaymentID     uint        `gorm:"column:payment_id;not null;index"`
	Payment       Payment     `gorm:"foreignKey:PaymentID"`
	InstallmentID uint        `gorm:"column:installment_id;not null;index"`
	Installment   Installment `gorm:"foreignKey:InstallmentID"`
	AppliedAmount float64     `gorm:"column:applied_amount;not null"`
	CreatedAt     time.Time   `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

// TableName returns the table name for the PaymentInstallment model
func (PaymentInstallment) TableName() string {
	return "payment_installments"
}
