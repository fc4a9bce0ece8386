package services

import (
	"errors"
	"strings"
	"time"

	"prestadiario/models"
	"prestadiario/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateCreditDTO carries the data to create a credit
type CreateCreditDTO struct {
	ClientID           uint      `json:"client_id" validate:"required"`
	CreditValue        float64   `json:"credit_value" validate:"required,gt=0"`
	NumberInstallments int       `json:"number_installments" validate:"required,gt=0"`
	TotalInterest      float64   `json:"total_interest" validate:"gte=0"`
	PaymentFrequency   string    `json:"payment_frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	FirstQuotaDate     time.Time `json:"first_quota_date" validate:"required"`
}

// RenewCreditDTO carries the data to renew an existing credit
type RenewCreditDTO struct {
	OldCreditID        uint      `json:"-" validate:"required"`
	CreditValue        float64   `json:"credit_value" validate:"required,gt=0"`
	NumberInstallments int       `json:"number_installments" validate:"required,gt=0"`
	TotalInterest      float64   `json:"total_interest" validate:"gte=0"`
	PaymentFrequency   string    `json:"payment_frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	FirstQuotaDate     time.Time `json:"first_quota_date" validate:"required"`
}

// CreditService provides credit lifecycle operations
type CreditService struct {
	db            *gorm.DB
	validator     *validator.Validate
	notifications *NotificationService
}

// NewCreditService creates a new CreditService
func NewCreditService(db *gorm.DB, notifications *NotificationService) *CreditService {
	return &CreditService{
		db:            db,
		validator:     validator.New(),
		notifications: notifications,
	}
}

// validateDTO runs struct validation and folds tag errors into one message
func (s *CreditService) validateDTO(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return ValidationError("%v", err)
		}
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "field "+e.Field()+" is required")
			case "gt":
				errorMessages = append(errorMessages, "field "+e.Field()+" must be greater than 0")
			case "gte":
				errorMessages = append(errorMessages, "field "+e.Field()+" must not be negative")
			case "oneof":
				errorMessages = append(errorMessages, "field "+e.Field()+" has an invalid value")
			default:
				errorMessages = append(errorMessages, "field "+e.Field()+" is invalid")
			}
		}
		return ValidationError("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// generateInstallmentSchedule builds the amortization schedule for a credit.
// Quota is the flat division of the principal; interest stays on the credit
// as a percentage and is never distributed into the schedule.
func (s *CreditService) generateInstallmentSchedule(credit *models.Credit) []models.Installment {
	quota := round2(credit.CreditValue / float64(credit.NumberInstallments))
	frequency := credit.PaymentFrequency

	installments := make([]models.Installment, credit.NumberInstallments)
	dueDate := credit.FirstQuotaDate
	for i := 0; i < credit.NumberInstallments; i++ {
		installments[i] = models.Installment{
			CreditID:    credit.ID,
			QuotaNumber: i + 1,
			DueDate:     dueDate,
			QuotaAmount: quota,
			PaidAmount:  0,
			Status:      models.InstallmentStatusPending,
		}
		dueDate = frequency.NextDueDate(dueDate)
	}

	return installments
}

// scheduleEndDate returns the due date of the last installment
func scheduleEndDate(firstQuotaDate time.Time, numberInstallments int, frequency models.PaymentFrequency) time.Time {
	end := firstQuotaDate
	for i := 1; i < numberInstallments; i++ {
		end = frequency.NextDueDate(end)
	}
	return end
}

// createWithSchedule persists a credit and its full schedule inside tx
func (s *CreditService) createWithSchedule(tx *gorm.DB, credit *models.Credit) error {
	if err := tx.Create(credit).Error; err != nil {
		return PersistenceError("failed to create credit: %v", err)
	}

	installments := s.generateInstallmentSchedule(credit)
	for i := range installments {
		if err := tx.Create(&installments[i]).Error; err != nil {
			return PersistenceError("failed to create installment %d: %v", installments[i].QuotaNumber, err)
		}
	}
	credit.Installments = installments

	return nil
}

// Create creates a new credit together with its installment schedule.
// The whole creation is transactional: no partial schedule survives an error.
func (s *CreditService) Create(dto CreateCreditDTO) (*models.Credit, error) {
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, PersistenceError("failed to begin transaction: %v", tx.Error)
	}

	// The client must exist
	var client models.Client
	if err := tx.First(&client, dto.ClientID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("client %d", dto.ClientID)
		}
		return nil, PersistenceError("failed to look up client: %v", err)
	}

	frequency := models.PaymentFrequency(dto.PaymentFrequency)
	credit := &models.Credit{
		ClientID:           dto.ClientID,
		CreditValue:        dto.CreditValue,
		NumberInstallments: dto.NumberInstallments,
		TotalInterest:      dto.TotalInterest,
		PaymentFrequency:   frequency,
		FirstQuotaDate:     dto.FirstQuotaDate,
		EndDate:            scheduleEndDate(dto.FirstQuotaDate, dto.NumberInstallments, frequency),
		Status:             models.CreditStatusActive,
		RemainingAmount:    dto.CreditValue,
	}

	if err := s.createWithSchedule(tx, credit); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, PersistenceError("failed to commit transaction: %v", err)
	}

	utils.GetMetrics().RecordCreditOperation("create")
	utils.LogInfo("Credit %d created for client %d: value %.2f in %d installments",
		credit.ID, client.ID, credit.CreditValue, credit.NumberInstallments)

	return credit, nil
}

// Renew replaces an existing credit with a new one in a single transaction.
// The old credit's remaining balance is absorbed by the new disbursement;
// the liquidation calculator accounts for the absorbed amount.
func (s *CreditService) Renew(dto RenewCreditDTO) (*models.Credit, error) {
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, PersistenceError("failed to begin transaction: %v", tx.Error)
	}

	var oldCredit models.Credit
	if err := tx.First(&oldCredit, dto.OldCreditID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("credit %d", dto.OldCreditID)
		}
		return nil, PersistenceError("failed to look up credit: %v", err)
	}

	if oldCredit.Status == models.CreditStatusRenewed {
		tx.Rollback()
		return nil, ConflictError("credit %d was already renewed", oldCredit.ID)
	}

	frequency := models.PaymentFrequency(dto.PaymentFrequency)
	newCredit := &models.Credit{
		ClientID:           oldCredit.ClientID,
		CreditValue:        dto.CreditValue,
		NumberInstallments: dto.NumberInstallments,
		TotalInterest:      dto.TotalInterest,
		PaymentFrequency:   frequency,
		FirstQuotaDate:     dto.FirstQuotaDate,
		EndDate:            scheduleEndDate(dto.FirstQuotaDate, dto.NumberInstallments, frequency),
		Status:             models.CreditStatusNew,
		RemainingAmount:    dto.CreditValue,
		RenewedFromID:      &oldCredit.ID,
	}

	if err := s.createWithSchedule(tx, newCredit); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Close out the old credit
	oldCredit.Status = models.CreditStatusRenewed
	oldCredit.RenewedToID = &newCredit.ID
	if err := tx.Save(&oldCredit).Error; err != nil {
		tx.Rollback()
		return nil, PersistenceError("failed to update renewed credit: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, PersistenceError("failed to commit transaction: %v", err)
	}

	utils.GetMetrics().RecordCreditOperation("renew")
	utils.LogInfo("Credit %d renewed into credit %d", oldCredit.ID, newCredit.ID)

	return newCredit, nil
}

// MarkIrrecoverable writes a credit off and stamps when it happened.
// The stamp drives the irrecoverable aggregate of that day's liquidation.
func (s *CreditService) MarkIrrecoverable(creditID uint, when time.Time) (*models.Credit, error) {
	var credit models.Credit
	if err := s.db.First(&credit, creditID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("credit %d", creditID)
		}
		return nil, PersistenceError("failed to look up credit: %v", err)
	}

	if credit.Status == models.CreditStatusIrrecoverable {
		return nil, ConflictError("credit %d is already written off", creditID)
	}

	credit.Status = models.CreditStatusIrrecoverable
	credit.IrrecoverableAt = &when
	if err := s.db.Save(&credit).Error; err != nil {
		return nil, PersistenceError("failed to update credit: %v", err)
	}

	utils.GetMetrics().RecordCreditOperation("writeoff")
	utils.LogInfo("Credit %d marked irrecoverable at %s", credit.ID, when.Format("2006-01-02"))

	return &credit, nil
}

// GetCreditByID returns a credit with its relations
func (s *CreditService) GetCreditByID(id uint) (*models.Credit, error) {
	var credit models.Credit
	if err := s.db.Preload("Client.Seller").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installments.due_date ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.payment_date DESC")
		}).
		First(&credit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("credit %d", id)
		}
		return nil, PersistenceError("failed to look up credit: %v", err)
	}
	return &credit, nil
}

// GetCreditsByClientID returns all credits of a client
func (s *CreditService) GetCreditsByClientID(clientID uint) ([]models.Credit, error) {
	var credits []models.Credit
	if err := s.db.Where("client_id = ?", clientID).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installments.due_date ASC")
		}).
		Find(&credits).Error; err != nil {
		return nil, PersistenceError("failed to list credits: %v", err)
	}
	return credits, nil
}

// GetCreditsBySellerID returns all credits collected by a seller
func (s *CreditService) GetCreditsBySellerID(sellerID uint) ([]models.Credit, error) {
	var credits []models.Credit
	if err := s.db.
		Joins("JOIN clients ON clients.id = credits.client_id").
		Where("clients.seller_id = ?", sellerID).
		Preload("Client").
		Find(&credits).Error; err != nil {
		return nil, PersistenceError("failed to list credits: %v", err)
	}
	return credits, nil
}
