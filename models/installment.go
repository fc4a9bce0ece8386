package models

import (
	"time"
)

// InstallmentStatus represents the payment status of a single quota
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "Pendiente"
	InstallmentStatusPartial InstallmentStatus = "Parcial"
	InstallmentStatusOverdue InstallmentStatus = "Atrasado"
	InstallmentStatusPaid    InstallmentStatus = "Pagado"
)

// Installment represents one scheduled repayment unit (cuota) of a credit
type Installment struct {
	ID          uint              `gorm:"primaryKey;autoIncrement"`
	CreditID    uint              `gorm:"column:credit_id;not null;index"`
	Credit      Credit            `gorm:"foreignKey:CreditID"`
	QuotaNumber int               `gorm:"column:quota_number;not null"`
	DueDate     time.Time         `gorm:"column:due_date;not null;index"`
	QuotaAmount float64           `gorm:"column:quota_amount;not null"`
	PaidAmount  float64           `gorm:"column:paid_amount;not null;default:0"`
	Status      InstallmentStatus `gorm:"type:varchar(20);not null;default:'Pendiente';index"`
	CreatedAt   time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName returns the table name for the Installment model
func (Installment) TableName() string {
	return "installments"
}

// Pending returns the amount still owed on this installment
func (i *Installment) Pending() float64 {
	return i.QuotaAmount - i.PaidAmount
}

// IsOutstanding reports whether the installment still accepts payments
func (i *Installment) IsOutstanding() bool {
	return i.Status == InstallmentStatusPending ||
		i.Status == InstallmentStatusPartial ||
		i.Status == InstallmentStatusOverdue
}
