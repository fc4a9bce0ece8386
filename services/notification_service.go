package services

import (
	"encoding/json"
	"fmt"

	"prestadiario/models"
	"prestadiario/utils"

	"gorm.io/gorm"
)

// NotificationService stores in-app notifications and mails them out.
// Delivery is fire-and-forget: a failure is logged and never propagates
// into the operation that triggered it.
type NotificationService struct {
	db    *gorm.DB
	email *EmailService
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(db *gorm.DB, email *EmailService) *NotificationService {
	return &NotificationService{
		db:    db,
		email: email,
	}
}

// Notify stores a notification row for the user and emails it asynchronously
func (s *NotificationService) Notify(userID uint, title, message, link string, payload map[string]interface{}) {
	if s == nil || s.db == nil {
		return
	}

	payloadJSON := ""
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			payloadJSON = string(raw)
		}
	}

	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Link:    link,
		Payload: payloadJSON,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		utils.LogError("Failed to store notification for user %d: %v", userID, err)
		return
	}

	if s.email == nil {
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.LogError("Failed to look up notification recipient %d: %v", userID, err)
		return
	}

	go func(to, subject, body string) {
		if err := s.email.SendEmail(to, subject, body); err != nil {
			utils.LogError("Failed to email notification to %s: %v", to, err)
		}
	}(user.Email, title, message)
}

// NotifyCreditSettled tells the seller that a credit was fully paid
func (s *NotificationService) NotifyCreditSettled(credit *models.Credit) {
	if s == nil || s.db == nil || credit == nil {
		return
	}

	var client models.Client
	if err := s.db.First(&client, credit.ClientID).Error; err != nil {
		utils.LogError("Failed to look up client %d for settlement notice: %v", credit.ClientID, err)
		return
	}

	s.Notify(client.SellerID,
		"Crédito liquidado",
		fmt.Sprintf("El crédito #%d de %s fue pagado en su totalidad.", credit.ID, client.DisplayName()),
		fmt.Sprintf("/credits/%d", credit.ID),
		map[string]interface{}{
			"credit_id": credit.ID,
			"client_id": client.ID,
		})
}

// NotifyLiquidationShortage warns the seller about missing closeout cash
func (s *NotificationService) NotifyLiquidationShortage(liquidation *models.Liquidation) {
	if s == nil || s.db == nil || liquidation == nil {
		return
	}

	s.Notify(liquidation.CollectorID,
		"Faltante en liquidación",
		fmt.Sprintf("Faltante de %.2f en la liquidación del %s.",
			liquidation.Shortage, liquidation.Date.Format("02/01/2006")),
		fmt.Sprintf("/liquidations/%d", liquidation.ID),
		map[string]interface{}{
			"liquidation_id": liquidation.ID,
			"shortage":       liquidation.Shortage,
		})
}

// MarkRead flags a notification as read
func (s *NotificationService) MarkRead(notificationID uint) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", notificationID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return PersistenceError("failed to mark notification read: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError("notification %d", notificationID)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first
func (s *NotificationService) ListByUser(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, PersistenceError("failed to list notifications: %v", err)
	}
	return notifications, nil
}
