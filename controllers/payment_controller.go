package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"prestadiario/middleware"
	"prestadiario/services"

	"github.com/gorilla/mux"
)

// PaymentController handles payment collection requests
type PaymentController struct {
	paymentService *services.PaymentService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// ApplyPayment registers a collected payment against a credit
func (c *PaymentController) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	if _, _, err := middleware.GetUserFromContext(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	creditID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit ID")
		return
	}

	var dto services.ApplyPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.CreditID = uint(creditID)

	result, err := c.paymentService.Apply(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetPayments lists a credit's payments with their allocations
func (c *PaymentController) GetPayments(w http.ResponseWriter, r *http.Request) {
	if _, _, err := middleware.GetUserFromContext(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	creditID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit ID")
		return
	}

	payments, err := c.paymentService.GetPaymentsByCreditID(uint(creditID))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}
