package services

import (
	"fmt"
	"testing"
	"time"

	"prestadiario/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database with every table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Guarantor{},
		&models.Credit{},
		&models.Installment{},
		&models.Payment{},
		&models.PaymentInstallment{},
		&models.Liquidation{},
		&models.Expense{},
		&models.Income{},
		&models.Notification{},
	))

	return db
}

var sellerSeq int

// seedSeller creates a collector user
func seedSeller(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	sellerSeq++
	seller := &models.User{
		FirstName: "Pedro",
		LastName:  "Cobrador",
		Email:     fmt.Sprintf("pedro%d@example.com", sellerSeq),
		Password:  "not-a-real-hash",
		RoleID:    models.RoleSeller,
	}
	require.NoError(t, db.Create(seller).Error)
	return seller
}

// seedClient creates a borrower assigned to a seller
func seedClient(t *testing.T, db *gorm.DB, sellerID uint) *models.Client {
	t.Helper()

	client := &models.Client{
		Name:     "Maria Lopez",
		Document: "900123456",
		Phone:    "3001234567",
		Address:  "Calle 10 # 5-20",
		City:     "Medellin",
		SellerID: sellerID,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func newTestCreditService(db *gorm.DB) *CreditService {
	return NewCreditService(db, NewNotificationService(db, nil))
}

func newTestPaymentService(db *gorm.DB) *PaymentService {
	return NewPaymentService(db, NewNotificationService(db, nil), []byte("test-receipt-key"))
}

func newTestLiquidationService(db *gorm.DB) *LiquidationService {
	return NewLiquidationService(db, NewNotificationService(db, nil))
}

// midnight normalizes a date the same way the liquidation day window does
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
