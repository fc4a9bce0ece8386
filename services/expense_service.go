package services

import (
	"errors"
	"time"

	"prestadiario/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateExpenseDTO carries the data to register an expense or income
type CreateExpenseDTO struct {
	UserID      uint      `json:"-" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Description string    `json:"description" validate:"max=255"`
	Date        time.Time `json:"date"`
}

// ExpenseService registers sellers' daily expenses and incomes
type ExpenseService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{
		db:        db,
		validator: validator.New(),
	}
}

func (s *ExpenseService) validate(dto *CreateExpenseDTO) error {
	if err := s.validator.Struct(dto); err != nil {
		return ValidationError("%v", err)
	}
	if dto.Date.IsZero() {
		dto.Date = time.Now()
	}
	var user models.User
	if err := s.db.First(&user, dto.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundError("user %d", dto.UserID)
		}
		return PersistenceError("failed to look up user: %v", err)
	}
	return nil
}

// CreateExpense registers money a seller spent
func (s *ExpenseService) CreateExpense(dto CreateExpenseDTO) (*models.Expense, error) {
	if err := s.validate(&dto); err != nil {
		return nil, err
	}

	start, _ := dayBounds(dto.Date)
	expense := &models.Expense{
		UserID:      dto.UserID,
		Amount:      dto.Amount,
		Description: dto.Description,
		Date:        start,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, PersistenceError("failed to create expense: %v", err)
	}

	return expense, nil
}

// CreateIncome registers extra money a seller received
func (s *ExpenseService) CreateIncome(dto CreateExpenseDTO) (*models.Income, error) {
	if err := s.validate(&dto); err != nil {
		return nil, err
	}

	start, _ := dayBounds(dto.Date)
	income := &models.Income{
		UserID:      dto.UserID,
		Amount:      dto.Amount,
		Description: dto.Description,
		Date:        start,
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, PersistenceError("failed to create income: %v", err)
	}

	return income, nil
}

// ListExpenses returns a seller's expenses for a business date
func (s *ExpenseService) ListExpenses(userID uint, date time.Time) ([]models.Expense, error) {
	start, end := dayBounds(date)
	var expenses []models.Expense
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("created_at ASC").
		Find(&expenses).Error; err != nil {
		return nil, PersistenceError("failed to list expenses: %v", err)
	}
	return expenses, nil
}

// ListIncomes returns a seller's incomes for a business date
func (s *ExpenseService) ListIncomes(userID uint, date time.Time) ([]models.Income, error) {
	start, end := dayBounds(date)
	var incomes []models.Income
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("created_at ASC").
		Find(&incomes).Error; err != nil {
		return nil, PersistenceError("failed to list incomes: %v", err)
	}
	return incomes, nil
}
