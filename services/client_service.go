package services

import (
	"errors"

	"prestadiario/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateClientDTO carries the data to register a client
type CreateClientDTO struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Document string `json:"document" validate:"required,min=4,max=30"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=255"`
	City     string `json:"city" validate:"max=60"`
	SellerID uint   `json:"-" validate:"required"`
}

// CreateGuarantorDTO carries the data to register a guarantor
type CreateGuarantorDTO struct {
	ClientID uint   `json:"-" validate:"required"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Document string `json:"document" validate:"required,min=4,max=30"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=255"`
}

// ClientService manages borrowers and their guarantors
type ClientService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewClientService creates a new ClientService
func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{
		db:        db,
		validator: validator.New(),
	}
}

// Create registers a new client under a seller
func (s *ClientService) Create(dto CreateClientDTO) (*models.Client, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, ValidationError("%v", err)
	}

	var seller models.User
	if err := s.db.First(&seller, dto.SellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("seller %d", dto.SellerID)
		}
		return nil, PersistenceError("failed to look up seller: %v", err)
	}

	client := &models.Client{
		Name:     dto.Name,
		Document: dto.Document,
		Phone:    dto.Phone,
		Address:  dto.Address,
		City:     dto.City,
		SellerID: dto.SellerID,
	}
	if err := s.db.Create(client).Error; err != nil {
		return nil, PersistenceError("failed to create client: %v", err)
	}

	return client, nil
}

// AddGuarantor registers a guarantor for a client
func (s *ClientService) AddGuarantor(dto CreateGuarantorDTO) (*models.Guarantor, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, ValidationError("%v", err)
	}

	var client models.Client
	if err := s.db.First(&client, dto.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("client %d", dto.ClientID)
		}
		return nil, PersistenceError("failed to look up client: %v", err)
	}

	guarantor := &models.Guarantor{
		ClientID: dto.ClientID,
		Name:     dto.Name,
		Document: dto.Document,
		Phone:    dto.Phone,
		Address:  dto.Address,
	}
	if err := s.db.Create(guarantor).Error; err != nil {
		return nil, PersistenceError("failed to create guarantor: %v", err)
	}

	return guarantor, nil
}

// GetByID returns a client with seller and guarantors
func (s *ClientService) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.Preload("Seller").Preload("Guarantors").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("client %d", id)
		}
		return nil, PersistenceError("failed to look up client: %v", err)
	}
	return &client, nil
}

// ListBySeller returns every client managed by a seller
func (s *ClientService) ListBySeller(sellerID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.Where("seller_id = ?", sellerID).
		Preload("Guarantors").
		Order("name ASC").
		Find(&clients).Error; err != nil {
		return nil, PersistenceError("failed to list clients: %v", err)
	}
	return clients, nil
}
