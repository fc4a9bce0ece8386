package services

import (
	"errors"
	"testing"
	"time"

	"prestadiario/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCreditRow(t *testing.T, db *gorm.DB, clientID uint, value float64, interest float64, createdAt time.Time) *models.Credit {
	t.Helper()
	credit := &models.Credit{
		ClientID:           clientID,
		CreditValue:        value,
		NumberInstallments: 10,
		TotalInterest:      interest,
		PaymentFrequency:   models.FrequencyDaily,
		Status:             models.CreditStatusActive,
		RemainingAmount:    value,
	}
	credit.CreatedAt = createdAt
	require.NoError(t, db.Create(credit).Error)
	return credit
}

func seedPaymentRow(t *testing.T, db *gorm.DB, creditID uint, amount float64, when time.Time, status models.PaymentStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.Payment{
		CreditID:    creditID,
		Amount:      amount,
		PaymentDate: when,
		Status:      status,
	}).Error)
}

func TestComputeDailyFormula(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestLiquidationService(db)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local)

	// Working credit disbursed days earlier: collections count, the principal does not
	working := seedCreditRow(t, db, client.ID, 600, 20, date.AddDate(0, 0, -3))
	seedPaymentRow(t, db, working.ID, 80, date.Add(9*time.Hour), models.PaymentStatusPaid)
	seedPaymentRow(t, db, working.ID, 70, date.Add(15*time.Hour), models.PaymentStatusPartial)

	// Reversed payments never count as collected cash
	seedPaymentRow(t, db, working.ID, 999, date.Add(11*time.Hour), models.PaymentStatusReturned)

	// Disbursed today: leaves the seller's cash
	seedCreditRow(t, db, client.ID, 500, 20, date.Add(10*time.Hour))

	require.NoError(t, db.Create(&models.Expense{
		UserID: seller.ID, Amount: 30, Description: "gasolina", Date: date.Add(8 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.Income{
		UserID: seller.ID, Amount: 20, Description: "base extra", Date: date.Add(8 * time.Hour),
	}).Error)

	snapshot, err := service.Compute(seller.ID, date)
	require.NoError(t, err)

	assert.Equal(t, 0.0, snapshot.InitialCash)
	assert.Equal(t, 150.0, snapshot.TotalCollected)
	assert.Equal(t, 30.0, snapshot.TotalExpenses)
	assert.Equal(t, 20.0, snapshot.TotalIncome)
	assert.Equal(t, 500.0, snapshot.NewCredits)
	assert.Equal(t, 0.0, snapshot.IrrecoverableCreditsAmount)

	// 0 + 20 + 150 - (30 + 500 + 0 + 0)
	assert.InDelta(t, -360, snapshot.RealToDeliver, 0.001)
}

func TestComputeCarriesForwardPriorCash(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	service := newTestLiquidationService(db)

	// Friday's closeout; Saturday and Sunday have no rows
	require.NoError(t, db.Create(&models.Liquidation{
		CollectorID:   seller.ID,
		Date:          time.Date(2026, 8, 21, 0, 0, 0, 0, time.Local),
		RealToDeliver: 120.5,
		Status:        models.LiquidationStatusAuto,
	}).Error)

	snapshot, err := service.Compute(seller.ID, time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, 120.5, snapshot.InitialCash)
	assert.Equal(t, 120.5, snapshot.RealToDeliver)

	// Before any liquidation exists the seller starts from zero
	snapshot, err = service.Compute(seller.ID, time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, 0.0, snapshot.InitialCash)
}

func TestComputeRenewalAbsorption(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestLiquidationService(db)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local)

	// Old credit: 1000 at 10% owes 1100, of which 200 was collected earlier
	old := seedCreditRow(t, db, client.ID, 1000, 10, date.AddDate(0, 0, -10))
	seedPaymentRow(t, db, old.ID, 200, date.AddDate(0, 0, -5), models.PaymentStatusPaid)

	renewal := seedCreditRow(t, db, client.ID, 900, 10, date.Add(10*time.Hour))
	require.NoError(t, db.Model(renewal).Update("renewed_from_id", old.ID).Error)

	snapshot, err := service.Compute(seller.ID, date)
	require.NoError(t, err)

	// The renewal is not a fresh disbursement
	assert.Equal(t, 0.0, snapshot.NewCredits)
	assert.InDelta(t, 900, snapshot.TotalPendingAbsorbed, 0.001)

	// 900 of debt absorbed by a 900 disbursement: no cash left the seller
	assert.InDelta(t, 0, snapshot.RenewalDisbursedTotal, 0.001)
	assert.InDelta(t, 0, snapshot.RealToDeliver, 0.001)
}

func TestComputeIrrecoverableCountsPendingQuotas(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestLiquidationService(db)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local)
	writtenOff := date.Add(12 * time.Hour)

	credit := seedCreditRow(t, db, client.ID, 300, 20, date.AddDate(0, 0, -20))
	require.NoError(t, db.Model(credit).Updates(map[string]interface{}{
		"status":           models.CreditStatusIrrecoverable,
		"irrecoverable_at": writtenOff,
	}).Error)

	// Two fully pending quotas and one already paid
	for i, status := range []models.InstallmentStatus{
		models.InstallmentStatusPaid,
		models.InstallmentStatusPending,
		models.InstallmentStatusPending,
	} {
		require.NoError(t, db.Create(&models.Installment{
			CreditID:    credit.ID,
			QuotaNumber: i + 1,
			DueDate:     date.AddDate(0, 0, i-20),
			QuotaAmount: 100,
			Status:      status,
		}).Error)
	}

	snapshot, err := service.Compute(seller.ID, date)
	require.NoError(t, err)
	assert.InDelta(t, 200, snapshot.IrrecoverableCreditsAmount, 0.001)
	assert.InDelta(t, -200, snapshot.RealToDeliver, 0.001)
}

func TestPersistIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	service := newTestLiquidationService(db)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local)

	first, created, err := service.Persist(seller.ID, date, models.LiquidationStatusManual)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := service.Persist(seller.ID, date, models.LiquidationStatusAuto)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// The original row keeps its status and is never recalculated
	assert.Equal(t, models.LiquidationStatusManual, second.Status)

	var count int64
	require.NoError(t, db.Model(&models.Liquidation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBackfillSkipsSundays(t *testing.T) {
	db := setupTestDB(t)
	service := newTestLiquidationService(db)

	seller := &models.User{
		FirstName: "Laura",
		LastName:  "Cobradora",
		Email:     "laura.backfill@example.com",
		Password:  "not-a-real-hash",
		RoleID:    models.RoleSeller,
	}
	seller.CreatedAt = time.Now().AddDate(0, 0, -9)
	require.NoError(t, db.Create(seller).Error)

	require.NoError(t, service.Backfill(seller.ID))

	expected := 0
	day := midnight(seller.CreatedAt)
	yesterday := midnight(time.Now().AddDate(0, 0, -1))
	for !day.After(yesterday) {
		if day.Weekday() != time.Sunday {
			expected++
		}
		day = day.AddDate(0, 0, 1)
	}

	var liquidations []models.Liquidation
	require.NoError(t, db.Where("collector_id = ?", seller.ID).Find(&liquidations).Error)
	assert.Len(t, liquidations, expected)
	for _, liquidation := range liquidations {
		assert.NotEqual(t, time.Sunday, liquidation.Date.Weekday())
		assert.Equal(t, models.LiquidationStatusHistorical, liquidation.Status)
	}

	// A second walk finds every day already closed
	require.NoError(t, service.Backfill(seller.ID))
	var count int64
	require.NoError(t, db.Model(&models.Liquidation{}).
		Where("collector_id = ?", seller.ID).Count(&count).Error)
	assert.Equal(t, int64(expected), count)
}

func TestBackfillUnknownSeller(t *testing.T) {
	db := setupTestDB(t)
	service := newTestLiquidationService(db)

	err := service.Backfill(9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegisterCashDelivered(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	service := newTestLiquidationService(db)

	short := &models.Liquidation{
		CollectorID:   seller.ID,
		Date:          time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local),
		RealToDeliver: 200,
		Status:        models.LiquidationStatusAuto,
	}
	require.NoError(t, db.Create(short).Error)

	updated, err := service.RegisterCashDelivered(short.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.CashDelivered)
	assert.Equal(t, 50.0, updated.Shortage)
	assert.Equal(t, 0.0, updated.Surplus)

	// The shortage produces a warning for the collector
	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", seller.ID).Count(&notifications).Error)
	assert.Equal(t, int64(1), notifications)

	over := &models.Liquidation{
		CollectorID:   seller.ID,
		Date:          time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local),
		RealToDeliver: 200,
		Status:        models.LiquidationStatusAuto,
	}
	require.NoError(t, db.Create(over).Error)

	updated, err = service.RegisterCashDelivered(over.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Shortage)
	assert.Equal(t, 50.0, updated.Surplus)

	_, err = service.RegisterCashDelivered(9999, 10)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = service.RegisterCashDelivered(short.ID, -1)
	assert.True(t, errors.Is(err, ErrValidation))
}
