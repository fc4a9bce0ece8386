package main

import (
	"fmt"
	"log"
	"net/http"

	"prestadiario/config"
	"prestadiario/controllers"
	"prestadiario/database"
	"prestadiario/middleware"
	"prestadiario/services"

	"github.com/gorilla/mux"
)

func initLiquidationScheduler(liquidationService *services.LiquidationService, cfg *config.Config) {
	scheduler := services.NewLiquidationSchedulerService(liquidationService, cfg)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start liquidation scheduler: %v", err)
	}
	log.Println("Liquidation scheduler started")
}

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the database and run migrations
	gormDB, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := &database.Database{DB: gormDB}

	// Build services
	emailService := services.NewEmailService(cfg)
	notificationService := services.NewNotificationService(gormDB, emailService)
	clientService := services.NewClientService(gormDB)
	creditService := services.NewCreditService(gormDB, notificationService)
	paymentService := services.NewPaymentService(gormDB, notificationService, []byte(cfg.ReceiptHMACKey))
	liquidationService := services.NewLiquidationService(gormDB, notificationService)
	expenseService := services.NewExpenseService(gormDB)

	// Start the nightly liquidation scheduler
	initLiquidationScheduler(liquidationService, cfg)

	// Build the router
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	// Controllers
	authController := controllers.NewAuthController(db, cfg)
	clientController := controllers.NewClientController(clientService)
	creditController := controllers.NewCreditController(creditService)
	paymentController := controllers.NewPaymentController(paymentService)
	liquidationController := controllers.NewLiquidationController(liquidationService)
	expenseController := controllers.NewExpenseController(expenseService)

	// Public auth routes
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Protected routes
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Clients and guarantors
	protected.HandleFunc("/clients", clientController.CreateClient).Methods("POST")
	protected.HandleFunc("/clients", clientController.GetClients).Methods("GET")
	protected.HandleFunc("/clients/{id}", clientController.GetClient).Methods("GET")
	protected.HandleFunc("/clients/{id}/guarantors", clientController.AddGuarantor).Methods("POST")

	// Credits
	protected.HandleFunc("/credits", creditController.CreateCredit).Methods("POST")
	protected.HandleFunc("/credits", creditController.GetCredits).Methods("GET")
	protected.HandleFunc("/credits/{id}", creditController.GetCredit).Methods("GET")
	protected.HandleFunc("/credits/{id}/renew", creditController.RenewCredit).Methods("POST")
	protected.HandleFunc("/credits/{id}/irrecoverable", creditController.MarkIrrecoverable).Methods("POST")

	// Payments
	protected.HandleFunc("/credits/{id}/payments", paymentController.ApplyPayment).Methods("POST")
	protected.HandleFunc("/credits/{id}/payments", paymentController.GetPayments).Methods("GET")

	// Expenses and incomes
	protected.HandleFunc("/expenses", expenseController.CreateExpense).Methods("POST")
	protected.HandleFunc("/expenses", expenseController.GetExpenses).Methods("GET")
	protected.HandleFunc("/incomes", expenseController.CreateIncome).Methods("POST")
	protected.HandleFunc("/incomes", expenseController.GetIncomes).Methods("GET")

	// Liquidations
	protected.HandleFunc("/liquidations/preview", liquidationController.PreviewLiquidation).Methods("GET")
	protected.HandleFunc("/liquidations", liquidationController.CreateLiquidation).Methods("POST")
	protected.HandleFunc("/liquidations", liquidationController.GetLiquidations).Methods("GET")
	protected.HandleFunc("/liquidations/{id}/cash", liquidationController.RegisterCashDelivered).Methods("POST")

	// Admin-only backfill
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/liquidations/backfill", liquidationController.BackfillLiquidations).Methods("POST")

	// Start the server
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
