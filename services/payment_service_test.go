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

// newPaymentFixture creates a credit with quotas of equal value and returns
// the services ready to collect against it
func newPaymentFixture(t *testing.T, db *gorm.DB, value float64, quotas int, firstQuota time.Time) (*PaymentService, *models.Credit) {
	t.Helper()

	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)

	credit, err := newTestCreditService(db).Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        value,
		NumberInstallments: quotas,
		TotalInterest:      20,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     firstQuota,
	})
	require.NoError(t, err)

	return newTestPaymentService(db), credit
}

func loadInstallments(t *testing.T, db *gorm.DB, creditID uint) []models.Installment {
	t.Helper()
	var installments []models.Installment
	require.NoError(t, db.Where("credit_id = ?", creditID).Order("due_date ASC").Find(&installments).Error)
	return installments
}

func TestApplyPaymentSpansInstallmentsOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	result, err := service.Apply(ApplyPaymentDTO{
		CreditID: credit.ID,
		Amount:   150,
		Method:   "cash",
	})
	require.NoError(t, err)

	installments := loadInstallments(t, db, credit.ID)
	require.Len(t, installments, 3)

	assert.Equal(t, 100.0, installments[0].PaidAmount)
	assert.Equal(t, models.InstallmentStatusPaid, installments[0].Status)
	assert.Equal(t, 50.0, installments[1].PaidAmount)
	assert.Equal(t, models.InstallmentStatusPartial, installments[1].Status)
	assert.Equal(t, 0.0, installments[2].PaidAmount)
	assert.Equal(t, models.InstallmentStatusPending, installments[2].Status)

	// A partial allocation leaves the payment as an abono
	assert.Equal(t, models.PaymentStatusPartial, result.Payment.Status)
	assert.Equal(t, 0.0, result.Payment.UnappliedAmount)
	assert.Len(t, result.InstallmentsAffected, 2)

	// Every collected peso is accounted for
	var allocations []models.PaymentInstallment
	require.NoError(t, db.Where("payment_id = ?", result.Payment.ID).Find(&allocations).Error)
	appliedTotal := 0.0
	for _, allocation := range allocations {
		appliedTotal += allocation.AppliedAmount
	}
	assert.InDelta(t, 150, appliedTotal+result.Payment.UnappliedAmount, 0.001)

	var reloaded models.Credit
	require.NoError(t, db.First(&reloaded, credit.ID).Error)
	assert.Equal(t, 150.0, reloaded.RemainingAmount)
}

func TestApplyPaymentExactQuotaSettlesInstallment(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	result, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 100})
	require.NoError(t, err)

	installments := loadInstallments(t, db, credit.ID)
	assert.Equal(t, models.InstallmentStatusPaid, installments[0].Status)
	assert.Equal(t, 100.0, installments[0].PaidAmount)
	assert.Equal(t, models.InstallmentStatusPending, installments[1].Status)

	// A whole-quota payment is a full payment, not an abono
	assert.Equal(t, models.PaymentStatusPaid, result.Payment.Status)
	assert.Equal(t, 0.0, result.Payment.UnappliedAmount)
}

func TestApplyPaymentBelowSmallestQuotaStaysOnOldest(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	result, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 40})
	require.NoError(t, err)

	installments := loadInstallments(t, db, credit.ID)
	assert.Equal(t, 40.0, installments[0].PaidAmount)
	assert.Equal(t, models.InstallmentStatusPartial, installments[0].Status)
	assert.Equal(t, 0.0, installments[1].PaidAmount)
	assert.Equal(t, 0.0, installments[2].PaidAmount)

	assert.Equal(t, models.PaymentStatusPartial, result.Payment.Status)
	assert.Len(t, result.InstallmentsAffected, 1)
}

func TestApplyZeroPaymentRecordsVisit(t *testing.T) {
	db := setupTestDB(t)
	// First quota already past due
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, -2))

	result, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 0})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusNotPaid, result.Payment.Status)
	assert.Equal(t, 0.0, result.Payment.Amount)

	// The visit is tagged to the oldest installment with a zero allocation
	var allocations []models.PaymentInstallment
	require.NoError(t, db.Where("payment_id = ?", result.Payment.ID).Find(&allocations).Error)
	require.Len(t, allocations, 1)
	assert.Equal(t, 0.0, allocations[0].AppliedAmount)

	installments := loadInstallments(t, db, credit.ID)
	assert.Equal(t, models.InstallmentStatusOverdue, installments[0].Status)
	assert.Equal(t, 0.0, installments[0].PaidAmount)

	// The debt itself is untouched
	var reloaded models.Credit
	require.NoError(t, db.First(&reloaded, credit.ID).Error)
	assert.Equal(t, 300.0, reloaded.RemainingAmount)
}

func TestApplyOverpaymentKeepsResidueAndSettlesCredit(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	result, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 350})
	require.NoError(t, err)

	installments := loadInstallments(t, db, credit.ID)
	for _, installment := range installments {
		assert.Equal(t, models.InstallmentStatusPaid, installment.Status)
		assert.Equal(t, installment.QuotaAmount, installment.PaidAmount)
	}

	assert.InDelta(t, 50, result.Payment.UnappliedAmount, 0.001)
	assert.Equal(t, models.PaymentStatusPartial, result.Payment.Status)

	var reloaded models.Credit
	require.NoError(t, db.First(&reloaded, credit.ID).Error)
	assert.Equal(t, models.CreditStatusSettled, reloaded.Status)
	assert.Equal(t, 0.0, reloaded.RemainingAmount)

	// Settling the credit notifies the seller
	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Equal(t, int64(1), notifications)
}

func TestApplySequentialPaymentsKeepInstallmentBounds(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	for _, amount := range []float64{130, 90, 100} {
		_, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: amount})
		require.NoError(t, err)
	}

	installments := loadInstallments(t, db, credit.ID)
	for _, installment := range installments {
		assert.GreaterOrEqual(t, installment.PaidAmount, 0.0)
		assert.LessOrEqual(t, installment.PaidAmount, installment.QuotaAmount+0.001)
		assert.Equal(t, models.InstallmentStatusPaid, installment.Status)
	}

	var reloaded models.Credit
	require.NoError(t, db.First(&reloaded, credit.ID).Error)
	assert.Equal(t, models.CreditStatusSettled, reloaded.Status)

	// 320 collected against 300 of debt: 20 never hit an installment
	var payments []models.Payment
	require.NoError(t, db.Where("credit_id = ?", credit.ID).Find(&payments).Error)
	unapplied := 0.0
	for _, payment := range payments {
		unapplied += payment.UnappliedAmount
	}
	assert.InDelta(t, 20, unapplied, 0.001)
}

func TestApplyPaymentRejectsNegativeAmount(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	_, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: -10})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestApplyPaymentUnknownCredit(t *testing.T) {
	db := setupTestDB(t)
	service := newTestPaymentService(db)

	_, err := service.Apply(ApplyPaymentDTO{CreditID: 9999, Amount: 50})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyPaymentOnSettledCredit(t *testing.T) {
	db := setupTestDB(t)
	service, credit := newPaymentFixture(t, db, 300, 3, time.Now().AddDate(0, 0, 1))

	_, err := service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 300})
	require.NoError(t, err)

	// Nothing outstanding is left to allocate against
	_, err = service.Apply(ApplyPaymentDTO{CreditID: credit.ID, Amount: 50})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReceiptReferenceIsStable(t *testing.T) {
	db := setupTestDB(t)
	service := newTestPaymentService(db)

	date := time.Date(2026, 6, 15, 10, 0, 0, 0, time.Local)
	first := service.receiptReference(42, date)
	second := service.receiptReference(42, date)
	other := service.receiptReference(43, date)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Contains(t, first, "REC-20260615-")
}
