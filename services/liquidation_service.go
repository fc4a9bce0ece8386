package services

import (
	"errors"
	"time"

	"prestadiario/models"
	"prestadiario/utils"

	"gorm.io/gorm"
)

// LiquidationSnapshot is a computed (not yet persisted) daily reconciliation
type LiquidationSnapshot struct {
	CollectorID                uint      `json:"collector_id"`
	Date                       time.Time `json:"date"`
	InitialCash                float64   `json:"initial_cash"`
	TotalCollected             float64   `json:"total_collected"`
	TotalExpenses              float64   `json:"total_expenses"`
	TotalIncome                float64   `json:"total_income"`
	NewCredits                 float64   `json:"new_credits"`
	IrrecoverableCreditsAmount float64   `json:"irrecoverable_credits_amount"`
	RenewalDisbursedTotal      float64   `json:"renewal_disbursed_total"`
	TotalPendingAbsorbed       float64   `json:"total_pending_absorbed"`
	RealToDeliver              float64   `json:"real_to_deliver"`
}

// LiquidationService computes and persists sellers' daily cash closeouts
type LiquidationService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewLiquidationService creates a new LiquidationService
func NewLiquidationService(db *gorm.DB, notifications *NotificationService) *LiquidationService {
	return &LiquidationService{
		db:            db,
		notifications: notifications,
	}
}

// dayBounds returns the [start, end) interval of a business date
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// Compute builds the liquidation snapshot for a seller and business date.
// It is a pure read: nothing is persisted.
func (s *LiquidationService) Compute(collectorID uint, date time.Time) (*LiquidationSnapshot, error) {
	var collector models.User
	if err := s.db.First(&collector, collectorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("seller %d", collectorID)
		}
		return nil, PersistenceError("failed to look up seller: %v", err)
	}

	start, end := dayBounds(date)
	snapshot := &LiquidationSnapshot{
		CollectorID: collectorID,
		Date:        start,
	}

	// Cash carried forward from the most recent prior liquidation. Sundays
	// are never liquidated, so "prior" is not necessarily yesterday.
	var previous models.Liquidation
	err := s.db.Where("collector_id = ? AND date < ?", collectorID, start).
		Order("date DESC").
		First(&previous).Error
	switch {
	case err == nil:
		snapshot.InitialCash = previous.RealToDeliver
	case errors.Is(err, gorm.ErrRecordNotFound):
		snapshot.InitialCash = 0
	default:
		return nil, PersistenceError("failed to look up previous liquidation: %v", err)
	}

	if err := s.db.Model(&models.Payment{}).
		Joins("JOIN credits ON credits.id = payments.credit_id").
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collectorID).
		Where("payments.payment_date >= ? AND payments.payment_date < ?", start, end).
		Where("payments.status <> ?", models.PaymentStatusReturned).
		Select("COALESCE(SUM(payments.amount), 0)").
		Scan(&snapshot.TotalCollected).Error; err != nil {
		return nil, PersistenceError("failed to sum collected payments: %v", err)
	}

	if err := s.db.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date < ?", collectorID, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&snapshot.TotalExpenses).Error; err != nil {
		return nil, PersistenceError("failed to sum expenses: %v", err)
	}

	if err := s.db.Model(&models.Income{}).
		Where("user_id = ? AND date >= ? AND date < ?", collectorID, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&snapshot.TotalIncome).Error; err != nil {
		return nil, PersistenceError("failed to sum incomes: %v", err)
	}

	// New disbursements of the day, renewals excluded
	if err := s.db.Model(&models.Credit{}).
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collectorID).
		Where("credits.created_at >= ? AND credits.created_at < ?", start, end).
		Where("credits.renewed_from_id IS NULL").
		Select("COALESCE(SUM(credits.credit_value), 0)").
		Scan(&snapshot.NewCredits).Error; err != nil {
		return nil, PersistenceError("failed to sum new credits: %v", err)
	}

	// Quotas still fully pending on credits written off that day
	if err := s.db.Model(&models.Installment{}).
		Joins("JOIN credits ON credits.id = installments.credit_id").
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collectorID).
		Where("credits.status = ?", models.CreditStatusIrrecoverable).
		Where("credits.irrecoverable_at >= ? AND credits.irrecoverable_at < ?", start, end).
		Where("installments.status = ?", models.InstallmentStatusPending).
		Select("COALESCE(SUM(installments.quota_amount), 0)").
		Scan(&snapshot.IrrecoverableCreditsAmount).Error; err != nil {
		return nil, PersistenceError("failed to sum irrecoverable quotas: %v", err)
	}

	if err := s.computeRenewals(collectorID, start, end, snapshot); err != nil {
		return nil, err
	}

	snapshot.RealToDeliver = round2(snapshot.InitialCash +
		snapshot.TotalIncome + snapshot.TotalCollected -
		(snapshot.TotalExpenses + snapshot.NewCredits +
			snapshot.IrrecoverableCreditsAmount + snapshot.RenewalDisbursedTotal))

	return snapshot, nil
}

// computeRenewals folds the day's renewal credits into the snapshot. For each
// renewal the old credit's unpaid total (with interest) is absorbed by the new
// disbursement; only the net difference leaves the seller's cash.
// The absorbed amount is intentionally not clamped at zero: an overpaid old
// credit inflates the net disbursement above the new credit's face value.
func (s *LiquidationService) computeRenewals(collectorID uint, start, end time.Time, snapshot *LiquidationSnapshot) error {
	var renewals []models.Credit
	if err := s.db.
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collectorID).
		Where("credits.created_at >= ? AND credits.created_at < ?", start, end).
		Where("credits.renewed_from_id IS NOT NULL").
		Find(&renewals).Error; err != nil {
		return PersistenceError("failed to list renewal credits: %v", err)
	}

	for i := range renewals {
		renewal := &renewals[i]

		var oldCredit models.Credit
		if err := s.db.First(&oldCredit, *renewal.RenewedFromID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.LogError("Renewal credit %d points to missing credit %d, skipping",
					renewal.ID, *renewal.RenewedFromID)
				continue
			}
			return PersistenceError("failed to look up renewed credit: %v", err)
		}

		var oldPaid float64
		if err := s.db.Model(&models.Payment{}).
			Where("credit_id = ?", oldCredit.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&oldPaid).Error; err != nil {
			return PersistenceError("failed to sum old credit payments: %v", err)
		}

		pendingAbsorbed := round2(oldCredit.TotalWithInterest() - oldPaid)
		netDisbursement := round2(renewal.CreditValue - pendingAbsorbed)

		snapshot.TotalPendingAbsorbed = round2(snapshot.TotalPendingAbsorbed + pendingAbsorbed)
		snapshot.RenewalDisbursedTotal = round2(snapshot.RenewalDisbursedTotal + netDisbursement)
	}

	return nil
}

// Persist creates the liquidation row for (seller, date). Creation is
// idempotent: when a row already exists it is returned untouched and the
// created flag is false. The unique (collector_id, date) index backs this
// under concurrent invocation.
func (s *LiquidationService) Persist(collectorID uint, date time.Time, status models.LiquidationStatus) (*models.Liquidation, bool, error) {
	start, _ := dayBounds(date)

	var existing models.Liquidation
	err := s.db.Where("collector_id = ? AND date = ?", collectorID, start).First(&existing).Error
	if err == nil {
		utils.GetMetrics().RecordLiquidation(false)
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, PersistenceError("failed to look up liquidation: %v", err)
	}

	snapshot, err := s.Compute(collectorID, date)
	if err != nil {
		return nil, false, err
	}

	liquidation := &models.Liquidation{
		CollectorID:                collectorID,
		Date:                       start,
		InitialCash:                snapshot.InitialCash,
		TotalCollected:             snapshot.TotalCollected,
		TotalExpenses:              snapshot.TotalExpenses,
		TotalIncome:                snapshot.TotalIncome,
		NewCredits:                 snapshot.NewCredits,
		IrrecoverableCreditsAmount: snapshot.IrrecoverableCreditsAmount,
		RenewalDisbursedTotal:      snapshot.RenewalDisbursedTotal,
		TotalPendingAbsorbed:       snapshot.TotalPendingAbsorbed,
		RealToDeliver:              snapshot.RealToDeliver,
		Status:                     status,
	}

	if err := s.db.Create(liquidation).Error; err != nil {
		// Lost a race against a concurrent creation: the unique index won
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lookupErr := s.db.Where("collector_id = ? AND date = ?", collectorID, start).
				First(&existing).Error; lookupErr == nil {
				utils.GetMetrics().RecordLiquidation(false)
				return &existing, false, nil
			}
			return nil, false, ConflictError("liquidation for seller %d on %s already exists",
				collectorID, start.Format("2006-01-02"))
		}
		return nil, false, PersistenceError("failed to create liquidation: %v", err)
	}

	utils.GetMetrics().RecordLiquidation(true)
	utils.LogInfo("Liquidation created for seller %d on %s: real to deliver %.2f",
		collectorID, start.Format("2006-01-02"), liquidation.RealToDeliver)

	return liquidation, true, nil
}

// RunDaily creates today's liquidation for every seller. A single seller's
// failure is logged and skipped; it never aborts the batch.
func (s *LiquidationService) RunDaily() {
	var sellers []models.User
	if err := s.db.Where("role_id = ?", models.RoleSeller).Find(&sellers).Error; err != nil {
		utils.LogError("Daily liquidation: failed to list sellers: %v", err)
		utils.GetMetrics().RecordError(err)
		return
	}

	today := time.Now()
	for i := range sellers {
		seller := &sellers[i]
		if _, _, err := s.Persist(seller.ID, today, models.LiquidationStatusAuto); err != nil {
			utils.LogError("Daily liquidation failed for seller %d: %v", seller.ID, err)
			utils.GetMetrics().RecordError(err)
			continue
		}
	}
}

// earliestActivityDate finds the first date a seller produced any financial
// activity: first credit, payment, expense, income, or the seller's own
// creation date, whichever is oldest.
func (s *LiquidationService) earliestActivityDate(collector *models.User) (time.Time, error) {
	earliest := collector.CreatedAt

	consider := func(t *time.Time) {
		if t != nil && !t.IsZero() && t.Before(earliest) {
			earliest = *t
		}
	}

	var firstCredit models.Credit
	err := s.db.Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collector.ID).
		Order("credits.created_at ASC").
		First(&firstCredit).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return earliest, PersistenceError("failed to find first credit: %v", err)
	}
	if err == nil {
		consider(&firstCredit.CreatedAt)
	}

	var firstPayment models.Payment
	err = s.db.Joins("JOIN credits ON credits.id = payments.credit_id").
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", collector.ID).
		Order("payments.payment_date ASC").
		First(&firstPayment).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return earliest, PersistenceError("failed to find first payment: %v", err)
	}
	if err == nil {
		consider(&firstPayment.PaymentDate)
	}

	var firstExpense models.Expense
	err = s.db.Where("user_id = ?", collector.ID).Order("date ASC").First(&firstExpense).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return earliest, PersistenceError("failed to find first expense: %v", err)
	}
	if err == nil {
		consider(&firstExpense.Date)
	}

	var firstIncome models.Income
	err = s.db.Where("user_id = ?", collector.ID).Order("date ASC").First(&firstIncome).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return earliest, PersistenceError("failed to find first income: %v", err)
	}
	if err == nil {
		consider(&firstIncome.Date)
	}

	return earliest, nil
}

// Backfill walks day by day from the seller's earliest activity to yesterday,
// creating the missing liquidations. Sundays are skipped entirely; the cash
// carry-forward always comes from the most recent prior liquidation.
func (s *LiquidationService) Backfill(collectorID uint) error {
	var collector models.User
	if err := s.db.First(&collector, collectorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundError("seller %d", collectorID)
		}
		return PersistenceError("failed to look up seller: %v", err)
	}

	earliest, err := s.earliestActivityDate(&collector)
	if err != nil {
		return err
	}

	day, _ := dayBounds(earliest)
	yesterday, _ := dayBounds(time.Now().AddDate(0, 0, -1))

	for !day.After(yesterday) {
		if day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		_, created, err := s.Persist(collectorID, day, models.LiquidationStatusHistorical)
		if err != nil {
			utils.LogError("Backfill failed for seller %d on %s: %v",
				collectorID, day.Format("2006-01-02"), err)
			utils.GetMetrics().RecordError(err)
			day = day.AddDate(0, 0, 1)
			continue
		}
		if created {
			utils.GetMetrics().RecordBackfilledDay()
		}

		day = day.AddDate(0, 0, 1)
	}

	return nil
}

// BackfillAll runs the historical walk for every seller, isolating failures
func (s *LiquidationService) BackfillAll() {
	var sellers []models.User
	if err := s.db.Where("role_id = ?", models.RoleSeller).Find(&sellers).Error; err != nil {
		utils.LogError("Backfill: failed to list sellers: %v", err)
		utils.GetMetrics().RecordError(err)
		return
	}

	for i := range sellers {
		if err := s.Backfill(sellers[i].ID); err != nil {
			utils.LogError("Backfill failed for seller %d: %v", sellers[i].ID, err)
			utils.GetMetrics().RecordError(err)
			continue
		}
	}
}

// RegisterCashDelivered records the cash an operator actually handed in and
// derives the shortage or surplus against the computed amount.
func (s *LiquidationService) RegisterCashDelivered(liquidationID uint, cashDelivered float64) (*models.Liquidation, error) {
	if cashDelivered < 0 {
		return nil, ValidationError("cash delivered must not be negative")
	}

	var liquidation models.Liquidation
	if err := s.db.First(&liquidation, liquidationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("liquidation %d", liquidationID)
		}
		return nil, PersistenceError("failed to look up liquidation: %v", err)
	}

	liquidation.CashDelivered = cashDelivered
	liquidation.Shortage = round2(liquidation.RealToDeliver - cashDelivered)
	if liquidation.Shortage < 0 {
		liquidation.Shortage = 0
	}
	liquidation.Surplus = round2(cashDelivered - liquidation.RealToDeliver)
	if liquidation.Surplus < 0 {
		liquidation.Surplus = 0
	}

	if err := s.db.Save(&liquidation).Error; err != nil {
		return nil, PersistenceError("failed to update liquidation: %v", err)
	}

	if liquidation.Shortage > 0 {
		s.notifications.NotifyLiquidationShortage(&liquidation)
	}

	return &liquidation, nil
}

// GetLiquidationsByCollector lists a seller's liquidations, newest first
func (s *LiquidationService) GetLiquidationsByCollector(collectorID uint) ([]models.Liquidation, error) {
	var liquidations []models.Liquidation
	if err := s.db.Where("collector_id = ?", collectorID).
		Order("date DESC").
		Find(&liquidations).Error; err != nil {
		return nil, PersistenceError("failed to list liquidations: %v", err)
	}
	return liquidations, nil
}
