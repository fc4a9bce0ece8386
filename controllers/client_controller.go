package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"prestadiario/middleware"
	"prestadiario/models"
	"prestadiario/services"

	"github.com/gorilla/mux"
)

// ClientController handles client and guarantor requests
type ClientController struct {
	clientService *services.ClientService
}

// NewClientController creates a new ClientController
func NewClientController(clientService *services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient handles client registration
func (c *ClientController) CreateClient(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.CreateClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.SellerID = userID

	client, err := c.clientService.Create(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, client)
}

// AddGuarantor handles guarantor registration for a client
func (c *ClientController) AddGuarantor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clientID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var dto services.CreateGuarantorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.ClientID = uint(clientID)

	guarantor, err := c.clientService.AddGuarantor(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, guarantor)
}

// GetClient returns one client with its relations
func (c *ClientController) GetClient(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	clientID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	client, err := c.clientService.GetByID(uint(clientID))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Sellers only see their own clients
	if roleID == models.RoleSeller && client.SellerID != userID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// GetClients lists the authenticated seller's clients
func (c *ClientController) GetClients(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	clients, err := c.clientService.ListBySeller(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, clients)
}
