package services

import (
	"errors"
	"fmt"
	"time"

	"prestadiario/models"
	"prestadiario/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyPaymentDTO carries the data to register a collected payment
type ApplyPaymentDTO struct {
	CreditID    uint      `json:"-" validate:"required"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	PaymentDate time.Time `json:"payment_date"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference"`
}

// ApplyPaymentResult reports what an allocation touched
type ApplyPaymentResult struct {
	Payment              models.Payment       `json:"payment"`
	InstallmentsAffected []models.Installment `json:"installments_affected"`
}

// PaymentService applies collected money across a credit's installments
type PaymentService struct {
	db            *gorm.DB
	validator     *validator.Validate
	notifications *NotificationService
	receiptKey    []byte
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(db *gorm.DB, notifications *NotificationService, receiptKey []byte) *PaymentService {
	return &PaymentService{
		db:            db,
		validator:     validator.New(),
		notifications: notifications,
		receiptKey:    receiptKey,
	}
}

// lockForUpdate adds a row lock on drivers that support it. Two collectors
// registering payments on the same credit serialize on the credit row.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// receiptReference builds a signed receipt number for a payment
func (s *PaymentService) receiptReference(creditID uint, date time.Time) string {
	data := fmt.Sprintf("%d|%s", creditID, date.Format("2006-01-02T15:04:05"))
	signature := utils.GenerateHMAC(data, s.receiptKey)
	if len(signature) > 12 {
		signature = signature[:12]
	}
	return fmt.Sprintf("REC-%s-%s", date.Format("20060102"), signature)
}

// Apply allocates a payment across the credit's outstanding installments,
// oldest due date first. The whole allocation runs in one transaction; any
// error rolls back every installment and payment mutation together.
func (s *PaymentService) Apply(dto ApplyPaymentDTO) (*ApplyPaymentResult, error) {
	if dto.Amount < 0 {
		return nil, ValidationError("payment amount must not be negative")
	}
	if err := s.validator.Struct(dto); err != nil {
		return nil, ValidationError("%v", err)
	}
	if dto.PaymentDate.IsZero() {
		dto.PaymentDate = time.Now()
	}
	if dto.Reference == "" {
		dto.Reference = s.receiptReference(dto.CreditID, dto.PaymentDate)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, PersistenceError("failed to begin transaction: %v", tx.Error)
	}

	var credit models.Credit
	if err := lockForUpdate(tx).First(&credit, dto.CreditID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("credit %d", dto.CreditID)
		}
		return nil, PersistenceError("failed to look up credit: %v", err)
	}

	// Outstanding installments, strict FIFO by due date
	var installments []models.Installment
	if err := tx.Where("credit_id = ? AND status IN ?", credit.ID, []models.InstallmentStatus{
		models.InstallmentStatusPending,
		models.InstallmentStatusPartial,
		models.InstallmentStatusOverdue,
	}).Order("due_date ASC").Find(&installments).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to load installments: %v", err)
	}
	if len(installments) == 0 {
		tx.Rollback()
		return nil, NotFoundError("credit %d has no outstanding installments", credit.ID)
	}

	if dto.Amount == 0 {
		return s.applyZeroPayment(tx, &credit, installments, dto)
	}

	payment := models.Payment{
		CreditID:    credit.ID,
		Amount:      dto.Amount,
		PaymentDate: dto.PaymentDate,
		Method:      dto.Method,
		Reference:   dto.Reference,
		Status:      models.PaymentStatusPaid,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to create payment: %v", err)
	}

	// A payment below the smallest fully-pending quota can only reduce the
	// oldest open installment, never skip ahead to settle a smaller one.
	// The FIFO pass below already guarantees that ordering; the flag only
	// decides the resulting payment status.
	smallestFullQuota, hasFullQuota := smallestFullyPendingQuota(installments)
	belowSmallestQuota := hasFullQuota && dto.Amount < smallestFullQuota

	remaining := dto.Amount
	appliedTotal := 0.0
	partialApplication := belowSmallestQuota
	var affected []models.Installment

	for i := range installments {
		if remaining <= 0 {
			break
		}
		installment := &installments[i]
		pending := round2(installment.QuotaAmount - installment.PaidAmount)
		if pending <= 0 {
			continue
		}

		applied := pending
		if remaining < pending {
			applied = remaining
		}

		installment.PaidAmount = round2(installment.PaidAmount + applied)
		if installment.PaidAmount+0.001 >= installment.QuotaAmount {
			installment.Status = models.InstallmentStatusPaid
		} else {
			installment.Status = models.InstallmentStatusPartial
			partialApplication = true
		}
		if err := tx.Save(installment).Error; err != nil {
			tx.Rollback()
			return nil, PersistenceError("failed to update installment %d: %v", installment.ID, err)
		}

		record := models.PaymentInstallment{
			PaymentID:     payment.ID,
			InstallmentID: installment.ID,
			AppliedAmount: applied,
		}
		if err := tx.Create(&record).Error; err != nil {
			tx.Rollback()
			return nil, PersistenceError("failed to record allocation: %v", err)
		}

		remaining = round2(remaining - applied)
		appliedTotal = round2(appliedTotal + applied)
		affected = append(affected, *installment)
	}

	// Whatever could not be allocated stays on the payment itself
	payment.UnappliedAmount = round2(remaining)
	if partialApplication || payment.UnappliedAmount > 0 {
		payment.Status = models.PaymentStatusPartial
	}
	if err := tx.Save(&payment).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to update payment: %v", err)
	}

	settled, err := s.updateCreditAfterAllocation(tx, &credit, appliedTotal, dto.PaymentDate)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, PersistenceError("failed to commit transaction: %v", err)
	}

	utils.GetMetrics().RecordPayment(dto.Amount, partialApplication)
	utils.LogInfo("Payment %d of %.2f applied to credit %d (%d installments touched, %.2f unapplied)",
		payment.ID, payment.Amount, credit.ID, len(affected), payment.UnappliedAmount)

	if settled {
		utils.GetMetrics().RecordCreditOperation("settle")
		s.notifications.NotifyCreditSettled(&credit)
	}

	return &ApplyPaymentResult{Payment: payment, InstallmentsAffected: affected}, nil
}

// applyZeroPayment records a collection visit that produced no money.
// It never touches the credit's remaining amount, but it may flip the
// targeted installment to overdue when its due date has passed.
func (s *PaymentService) applyZeroPayment(tx *gorm.DB, credit *models.Credit, installments []models.Installment, dto ApplyPaymentDTO) (*ApplyPaymentResult, error) {
	payment := models.Payment{
		CreditID:    credit.ID,
		Amount:      0,
		PaymentDate: dto.PaymentDate,
		Method:      dto.Method,
		Reference:   dto.Reference,
		Status:      models.PaymentStatusNotPaid,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to create payment: %v", err)
	}

	// Tag the visit to the next pending installment
	target := &installments[0]
	record := models.PaymentInstallment{
		PaymentID:     payment.ID,
		InstallmentID: target.ID,
		AppliedAmount: 0,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to record allocation: %v", err)
	}

	if target.DueDate.Before(time.Now()) && target.Status != models.InstallmentStatusOverdue {
		target.Status = models.InstallmentStatusOverdue
		if err := tx.Save(target).Error; err != nil {
			tx.Rollback()
			return nil, PersistenceError("failed to update installment %d: %v", target.ID, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, PersistenceError("failed to commit transaction: %v", err)
	}

	utils.GetMetrics().RecordPayment(0, false)
	utils.LogInfo("Zero payment recorded for credit %d against installment %d", credit.ID, target.ID)

	return &ApplyPaymentResult{
		Payment:              payment,
		InstallmentsAffected: []models.Installment{*target},
	}, nil
}

// updateCreditAfterAllocation adjusts the credit's remaining amount and
// status; returns whether the credit got fully settled by this payment.
func (s *PaymentService) updateCreditAfterAllocation(tx *gorm.DB, credit *models.Credit, appliedTotal float64, paymentDate time.Time) (bool, error) {
	credit.RemainingAmount = round2(credit.RemainingAmount - appliedTotal)
	if credit.RemainingAmount < 0 {
		credit.RemainingAmount = 0
	}

	var unpaid int64
	if err := tx.Model(&models.Installment{}).
		Where("credit_id = ? AND status <> ?", credit.ID, models.InstallmentStatusPaid).
		Count(&unpaid).Error; err != nil {
		return false, PersistenceError("failed to count unpaid installments: %v", err)
	}

	settled := false
	if unpaid == 0 {
		credit.Status = models.CreditStatusSettled
		settled = true
	} else if paymentDate.After(credit.EndDate) {
		// Past the schedule with debt remaining
		credit.Status = models.CreditStatusPending
	}

	if err := tx.Save(credit).Error; err != nil {
		return false, PersistenceError("failed to update credit: %v", err)
	}

	return settled, nil
}

// smallestFullyPendingQuota finds the smallest quota among installments that
// have not received any payment yet
func smallestFullyPendingQuota(installments []models.Installment) (float64, bool) {
	smallest := 0.0
	found := false
	for i := range installments {
		installment := &installments[i]
		if installment.Status != models.InstallmentStatusPending || installment.PaidAmount > 0 {
			continue
		}
		if !found || installment.QuotaAmount < smallest {
			smallest = installment.QuotaAmount
			found = true
		}
	}
	return smallest, found
}

// GetPaymentsByCreditID lists a credit's payments with their allocations
func (s *PaymentService) GetPaymentsByCreditID(creditID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Where("credit_id = ?", creditID).
		Preload("Installments").
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, PersistenceError("failed to list payments: %v", err)
	}
	return payments, nil
}
