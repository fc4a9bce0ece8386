package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the status of a collected payment
type PaymentStatus string

const (
	PaymentStatusPartial  PaymentStatus = "Abonado"   // partially applied against an installment
	PaymentStatusPaid     PaymentStatus = "Pagado"    // fully consumed by whole-installment settlement
	PaymentStatusNotPaid  PaymentStatus = "No Pagado" // zero-amount visit record
	PaymentStatusReturned PaymentStatus = "Devuelto"  // reversed payment
	PaymentStatusApplied  PaymentStatus = "Aplicado"  // backfilled legacy record, already allocated
)

// Payment represents money collected against a credit
type Payment struct {
	gorm.Model
	CreditID        uint                 `gorm:"not null;index"`
	Credit          Credit               `gorm:"foreignKey:CreditID"`
	Amount          float64              `gorm:"not null"`
	PaymentDate     time.Time            `gorm:"not null;index"`
	Method          string               `gorm:"size:30"` // cash, transfer, ...
	Reference       string               `gorm:"size:100"`
	Status          PaymentStatus        `gorm:"type:varchar(20);not null;default:'Pagado'"`
	UnappliedAmount float64              `gorm:"not null;default:0"` // residue not allocated to any installment
	Installments    []PaymentInstallment `gorm:"foreignKey:PaymentID"`
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
