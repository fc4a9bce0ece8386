package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"prestadiario/middleware"
	"prestadiario/models"
	"prestadiario/services"

	"github.com/gorilla/mux"
)

// CreditController handles credit lifecycle requests
type CreditController struct {
	creditService *services.CreditService
}

// NewCreditController creates a new CreditController
func NewCreditController(creditService *services.CreditService) *CreditController {
	return &CreditController{creditService: creditService}
}

// CreateCredit handles credit creation
func (c *CreditController) CreateCredit(w http.ResponseWriter, r *http.Request) {
	if _, _, err := middleware.GetUserFromContext(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.CreateCreditDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	credit, err := c.creditService.Create(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, credit)
}

// RenewCredit handles credit renewal
func (c *CreditController) RenewCredit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	creditID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit ID")
		return
	}

	var dto services.RenewCreditDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.OldCreditID = uint(creditID)

	credit, err := c.creditService.Renew(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, credit)
}

// MarkIrrecoverable writes a credit off; admin only
func (c *CreditController) MarkIrrecoverable(w http.ResponseWriter, r *http.Request) {
	_, roleID, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if roleID != models.RoleAdmin && roleID != models.RoleSupervisor {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	vars := mux.Vars(r)
	creditID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit ID")
		return
	}

	credit, err := c.creditService.MarkIrrecoverable(uint(creditID), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, credit)
}

// GetCredit returns one credit with schedule and payments
func (c *CreditController) GetCredit(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	creditID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit ID")
		return
	}

	credit, err := c.creditService.GetCreditByID(uint(creditID))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if roleID == models.RoleSeller && credit.Client.SellerID != userID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	writeJSON(w, http.StatusOK, credit)
}

// GetCredits lists the authenticated seller's credits
func (c *CreditController) GetCredits(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	credits, err := c.creditService.GetCreditsBySellerID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, credits)
}
