package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"prestadiario/middleware"
	"prestadiario/services"
)

// ExpenseController handles sellers' daily expenses and incomes
type ExpenseController struct {
	expenseService *services.ExpenseService
}

// NewExpenseController creates a new ExpenseController
func NewExpenseController(expenseService *services.ExpenseService) *ExpenseController {
	return &ExpenseController{expenseService: expenseService}
}

func (c *ExpenseController) decode(w http.ResponseWriter, r *http.Request) (*services.CreateExpenseDTO, bool) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	var dto services.CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	dto.UserID = userID
	return &dto, true
}

// CreateExpense registers an expense for the authenticated seller
func (c *ExpenseController) CreateExpense(w http.ResponseWriter, r *http.Request) {
	dto, ok := c.decode(w, r)
	if !ok {
		return
	}

	expense, err := c.expenseService.CreateExpense(*dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// CreateIncome registers an income for the authenticated seller
func (c *ExpenseController) CreateIncome(w http.ResponseWriter, r *http.Request) {
	dto, ok := c.decode(w, r)
	if !ok {
		return
	}

	income, err := c.expenseService.CreateIncome(*dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, income)
}

// GetExpenses lists the seller's expenses for a date
func (c *ExpenseController) GetExpenses(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
	}

	expenses, err := c.expenseService.ListExpenses(userID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// GetIncomes lists the seller's incomes for a date
func (c *ExpenseController) GetIncomes(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
	}

	incomes, err := c.expenseService.ListIncomes(userID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, incomes)
}
