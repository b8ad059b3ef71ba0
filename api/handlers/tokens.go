package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openalpha/stakevault/api/types"
)

// TokenHandler serves token account endpoints
type TokenHandler struct {
	service types.TokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(service types.TokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// RegisterRoutes registers token API routes
func (h *TokenHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/tokens/accounts", h.CreateAccount).Methods(http.MethodPost)
	r.HandleFunc("/v1/tokens/mint", h.Mint).Methods(http.MethodPost)
	r.HandleFunc("/v1/tokens/transfer", h.Transfer).Methods(http.MethodPost)
	r.HandleFunc("/v1/tokens/{address}", h.GetAccount).Methods(http.MethodGet)
}

// CreateAccount handles POST /v1/tokens/accounts
func (h *TokenHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}

	acc, err := h.service.CreateAccount(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"account": acc})
}

// Mint handles POST /v1/tokens/mint
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.MintRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount is required")
		return
	}

	acc, err := h.service.Mint(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": acc})
}

// Transfer handles POST /v1/tokens/transfer
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount is required")
		return
	}

	if err := h.service.Transfer(r.Context(), caller, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetAccount handles GET /v1/tokens/{address}
func (h *TokenHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.GetAccount(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": acc})
}
