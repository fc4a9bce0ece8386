package services

import (
	"errors"

	"prestadiario/database"
	"prestadiario/models"
	"prestadiario/utils"

	"gorm.io/gorm"
)

type UserService struct {
	db *database.Database
}

type UserDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	RoleID    uint   `json:"roleId"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	RoleID    uint   `json:"roleId" validate:"omitempty,oneof=1 2 5"`
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db}
}

// CreateUserInternal creates a new user
func (h *UserService) CreateUserInternal(req CreateUserRequest) (*models.User, error) {
	// Reject duplicate emails up front
	var existingUser models.User
	if err := h.db.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error; err == nil {
		return nil, ConflictError("user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, PersistenceError("failed to look up user: %v", err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	roleID := req.RoleID
	if roleID == 0 {
		roleID = models.RoleSeller
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hashedPassword,
		RoleID:    roleID,
	}

	if err := h.db.DB.Create(user).Error; err != nil {
		return nil, PersistenceError("failed to create user: %v", err)
	}

	return user, nil
}

// FindByID finds a user by ID
func (h *UserService) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := h.db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("user %d", id)
		}
		return nil, PersistenceError("failed to look up user: %v", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email, ignoring case and whitespace
func (h *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := h.db.DB.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("user %s", email)
		}
		return nil, PersistenceError("failed to look up user: %v", err)
	}
	return &user, nil
}

// ListSellers returns every collector user
func (h *UserService) ListSellers() ([]models.User, error) {
	var sellers []models.User
	if err := h.db.DB.Where("role_id = ?", models.RoleSeller).Find(&sellers).Error; err != nil {
		return nil, PersistenceError("failed to list sellers: %v", err)
	}
	return sellers, nil
}
