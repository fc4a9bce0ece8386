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

// LiquidationController handles daily cash closeout requests
type LiquidationController struct {
	liquidationService *services.LiquidationService
}

// NewLiquidationController creates a new LiquidationController
func NewLiquidationController(liquidationService *services.LiquidationService) *LiquidationController {
	return &LiquidationController{liquidationService: liquidationService}
}

// parseDateParam reads a ?date=YYYY-MM-DD query parameter, defaulting to today
func parseDateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

// sellerParam resolves which seller the request targets. Sellers always act
// on themselves; admins may pass ?seller_id=N.
func sellerParam(r *http.Request) (uint, error) {
	userID, roleID, err := middleware.GetUserFromContext(r)
	if err != nil {
		return 0, err
	}

	if roleID == models.RoleSeller {
		return userID, nil
	}

	raw := r.URL.Query().Get("seller_id")
	if raw == "" {
		return userID, nil
	}
	sellerID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(sellerID), nil
}

// PreviewLiquidation computes a liquidation snapshot without persisting it
func (c *LiquidationController) PreviewLiquidation(w http.ResponseWriter, r *http.Request) {
	sellerID, err := sellerParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seller")
		return
	}

	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	snapshot, err := c.liquidationService.Compute(sellerID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// CreateLiquidation persists the liquidation for (seller, date)
func (c *LiquidationController) CreateLiquidation(w http.ResponseWriter, r *http.Request) {
	sellerID, err := sellerParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seller")
		return
	}

	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	liquidation, created, err := c.liquidationService.Persist(sellerID, date, models.LiquidationStatusManual)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		// Idempotent skip: the existing row is returned untouched
		status = http.StatusOK
	}
	writeJSON(w, status, liquidation)
}

// BackfillLiquidations runs the historical walk; admin only
func (c *LiquidationController) BackfillLiquidations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("seller_id")
	if raw == "" {
		go c.liquidationService.BackfillAll()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "backfill started"})
		return
	}

	sellerID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seller ID")
		return
	}

	if err := c.liquidationService.Backfill(uint(sellerID)); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "backfill completed"})
}

// RegisterCashDelivered records the cash handed in for a liquidation
func (c *LiquidationController) RegisterCashDelivered(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	liquidationID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid liquidation ID")
		return
	}

	var body struct {
		CashDelivered float64 `json:"cash_delivered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	liquidation, err := c.liquidationService.RegisterCashDelivered(uint(liquidationID), body.CashDelivered)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, liquidation)
}

// GetLiquidations lists the targeted seller's liquidations
func (c *LiquidationController) GetLiquidations(w http.ResponseWriter, r *http.Request) {
	sellerID, err := sellerParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seller")
		return
	}

	liquidations, err := c.liquidationService.GetLiquidationsByCollector(sellerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, liquidations)
}
