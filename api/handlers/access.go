package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openalpha/stakevault/api/types"
)

// AccessHandler serves the access-control endpoints
type AccessHandler struct {
	service types.AccessService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(service types.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

// RegisterRoutes registers access API routes
func (h *AccessHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/access", h.GetAccess).Methods(http.MethodGet)
	r.HandleFunc("/v1/access/initialize", h.Initialize).Methods(http.MethodPost)
	r.HandleFunc("/v1/access/restricted", h.Restricted).Methods(http.MethodPost)
	r.HandleFunc("/v1/access/transfer", h.TransferOwnership).Methods(http.MethodPost)
}

// Initialize handles POST /v1/access/initialize
func (h *AccessHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}

	config, err := h.service.InitializeAccess(r.Context(), caller)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"config": config})
}

// Restricted handles POST /v1/access/restricted
func (h *AccessHandler) Restricted(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}

	if err := h.service.RestrictedFunction(r.Context(), caller); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// TransferOwnership handles POST /v1/access/transfer
func (h *AccessHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.TransferOwnershipRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.TransferOwnership(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAccess handles GET /v1/access
func (h *AccessHandler) GetAccess(w http.ResponseWriter, r *http.Request) {
	config, err := h.service.GetAccess(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"config": config})
}
