package services

import (
	"errors"
	"testing"
	"time"

	"prestadiario/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCreditGeneratesDailySchedule(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestCreditService(db)

	firstQuota := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	credit, err := service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        300,
		NumberInstallments: 30,
		TotalInterest:      20,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     firstQuota,
	})
	require.NoError(t, err)

	assert.Equal(t, models.CreditStatusActive, credit.Status)
	assert.Equal(t, 300.0, credit.RemainingAmount)
	assert.Equal(t, firstQuota.AddDate(0, 0, 29), credit.EndDate)

	var installments []models.Installment
	require.NoError(t, db.Where("credit_id = ?", credit.ID).Order("due_date ASC").Find(&installments).Error)
	require.Len(t, installments, 30)

	for i, installment := range installments {
		assert.Equal(t, i+1, installment.QuotaNumber)
		assert.Equal(t, 10.0, installment.QuotaAmount)
		assert.Equal(t, 0.0, installment.PaidAmount)
		assert.Equal(t, models.InstallmentStatusPending, installment.Status)
		assert.True(t, installment.DueDate.Equal(firstQuota.AddDate(0, 0, i)),
			"quota %d due on %s", i+1, installment.DueDate)
	}
}

func TestCreateCreditDueDateStepping(t *testing.T) {
	firstQuota := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

	cases := []struct {
		frequency string
		secondDue time.Time
		endDate   time.Time
	}{
		{"daily", firstQuota.AddDate(0, 0, 1), firstQuota.AddDate(0, 0, 3)},
		{"weekly", firstQuota.AddDate(0, 0, 7), firstQuota.AddDate(0, 0, 21)},
		{"biweekly", firstQuota.AddDate(0, 0, 15), firstQuota.AddDate(0, 0, 45)},
		{"monthly", firstQuota.AddDate(0, 1, 0), firstQuota.AddDate(0, 3, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.frequency, func(t *testing.T) {
			db := setupTestDB(t)
			seller := seedSeller(t, db)
			client := seedClient(t, db, seller.ID)
			service := newTestCreditService(db)

			credit, err := service.Create(CreateCreditDTO{
				ClientID:           client.ID,
				CreditValue:        400,
				NumberInstallments: 4,
				TotalInterest:      10,
				PaymentFrequency:   tc.frequency,
				FirstQuotaDate:     firstQuota,
			})
			require.NoError(t, err)
			assert.True(t, credit.EndDate.Equal(tc.endDate))

			var installments []models.Installment
			require.NoError(t, db.Where("credit_id = ?", credit.ID).Order("due_date ASC").Find(&installments).Error)
			require.Len(t, installments, 4)
			assert.True(t, installments[0].DueDate.Equal(firstQuota))
			assert.True(t, installments[1].DueDate.Equal(tc.secondDue))
			assert.True(t, installments[3].DueDate.Equal(tc.endDate))
		})
	}
}

func TestCreateCreditRejectsInvalidInput(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestCreditService(db)

	_, err := service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        0,
		NumberInstallments: 10,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     time.Now(),
	})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        100,
		NumberInstallments: 10,
		PaymentFrequency:   "fortnightly",
		FirstQuotaDate:     time.Now(),
	})
	assert.True(t, errors.Is(err, ErrValidation))

	// No schedule fragments may survive the failed creations
	var count int64
	require.NoError(t, db.Model(&models.Installment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateCreditUnknownClient(t *testing.T) {
	db := setupTestDB(t)
	service := newTestCreditService(db)

	_, err := service.Create(CreateCreditDTO{
		ClientID:           9999,
		CreditValue:        100,
		NumberInstallments: 10,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     time.Now(),
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRenewCreditLinksOldAndNew(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestCreditService(db)

	firstQuota := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)
	old, err := service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        500,
		NumberInstallments: 20,
		TotalInterest:      15,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     firstQuota,
	})
	require.NoError(t, err)

	renewed, err := service.Renew(RenewCreditDTO{
		OldCreditID:        old.ID,
		CreditValue:        800,
		NumberInstallments: 20,
		TotalInterest:      15,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     firstQuota.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, models.CreditStatusNew, renewed.Status)
	assert.Equal(t, old.ClientID, renewed.ClientID)
	require.NotNil(t, renewed.RenewedFromID)
	assert.Equal(t, old.ID, *renewed.RenewedFromID)
	assert.True(t, renewed.IsRenewal())

	var oldReloaded models.Credit
	require.NoError(t, db.First(&oldReloaded, old.ID).Error)
	assert.Equal(t, models.CreditStatusRenewed, oldReloaded.Status)
	require.NotNil(t, oldReloaded.RenewedToID)
	assert.Equal(t, renewed.ID, *oldReloaded.RenewedToID)

	var installments int64
	require.NoError(t, db.Model(&models.Installment{}).
		Where("credit_id = ?", renewed.ID).Count(&installments).Error)
	assert.Equal(t, int64(20), installments)
}

func TestRenewCreditTwiceConflicts(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestCreditService(db)

	old, err := service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        500,
		NumberInstallments: 10,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     time.Now(),
	})
	require.NoError(t, err)

	dto := RenewCreditDTO{
		OldCreditID:        old.ID,
		CreditValue:        600,
		NumberInstallments: 10,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     time.Now().AddDate(0, 0, 1),
	}
	_, err = service.Renew(dto)
	require.NoError(t, err)

	_, err = service.Renew(dto)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestMarkIrrecoverable(t *testing.T) {
	db := setupTestDB(t)
	seller := seedSeller(t, db)
	client := seedClient(t, db, seller.ID)
	service := newTestCreditService(db)

	credit, err := service.Create(CreateCreditDTO{
		ClientID:           client.ID,
		CreditValue:        200,
		NumberInstallments: 10,
		PaymentFrequency:   "daily",
		FirstQuotaDate:     time.Now(),
	})
	require.NoError(t, err)

	when := time.Date(2026, 5, 10, 14, 30, 0, 0, time.Local)
	writtenOff, err := service.MarkIrrecoverable(credit.ID, when)
	require.NoError(t, err)
	assert.Equal(t, models.CreditStatusIrrecoverable, writtenOff.Status)
	require.NotNil(t, writtenOff.IrrecoverableAt)
	assert.True(t, writtenOff.IrrecoverableAt.Equal(when))

	_, err = service.MarkIrrecoverable(credit.ID, when)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = service.MarkIrrecoverable(9999, when)
	assert.True(t, errors.Is(err, ErrNotFound))
}
