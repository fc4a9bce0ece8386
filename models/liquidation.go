package models

import (
	"time"

	"gorm.io/gorm"
)

// LiquidationStatus marks how a liquidation row was produced
type LiquidationStatus string

const (
	LiquidationStatusAuto       LiquidationStatus = "auto"       // created by the nightly cron
	LiquidationStatusHistorical LiquidationStatus = "historical" // created by the backfill walk
	LiquidationStatusManual     LiquidationStatus = "manual"     // created by an operator for a given date
	LiquidationStatusPending    LiquidationStatus = "pending"    // awaiting cash delivery
)

// Liquidation is a seller's daily cash reconciliation (cierre/cuadre).
// One row per (collector, date); never recalculated after creation.
type Liquidation struct {
	gorm.Model
	CollectorID uint      `gorm:"not null;uniqueIndex:idx_liquidations_collector_date"`
	Collector   User      `gorm:"foreignKey:CollectorID"`
	Date        time.Time `gorm:"type:date;not null;uniqueIndex:idx_liquidations_collector_date"`

	InitialCash                float64 `gorm:"not null;default:0"` // previous liquidation's RealToDeliver
	TotalCollected             float64 `gorm:"not null;default:0"`
	TotalExpenses              float64 `gorm:"not null;default:0"`
	TotalIncome                float64 `gorm:"not null;default:0"`
	NewCredits                 float64 `gorm:"not null;default:0"` // disbursed principal, renewals excluded
	IrrecoverableCreditsAmount float64 `gorm:"not null;default:0"`
	RenewalDisbursedTotal      float64 `gorm:"not null;default:0"` // net cash handed out on renewals
	TotalPendingAbsorbed       float64 `gorm:"not null;default:0"` // old-credit debt folded into renewals

	RealToDeliver float64 `gorm:"not null;default:0"`
	CashDelivered float64 `gorm:"not null;default:0"`
	Shortage      float64 `gorm:"not null;default:0"`
	Surplus       float64 `gorm:"not null;default:0"`

	Status LiquidationStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for the Liquidation model
func (Liquidation) TableName() string {
	return "liquidations"
}
