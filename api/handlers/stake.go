package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openalpha/stakevault/api/types"
)

// StakeHandler serves the staking ledger endpoints
type StakeHandler struct {
	service types.StakeService
}

// NewStakeHandler creates a new stake handler
func NewStakeHandler(service types.StakeService) *StakeHandler {
	return &StakeHandler{service: service}
}

// RegisterRoutes registers staking API routes
func (h *StakeHandler) RegisterRoutes(r *mux.Router) {
	// Admin routes
	r.HandleFunc("/v1/admin/initialize", h.Initialize).Methods(http.MethodPost)
	r.HandleFunc("/v1/admin/fee", h.UpdateFee).Methods(http.MethodPost)

	// Staker routes
	r.HandleFunc("/v1/stake/deposit", h.Deposit).Methods(http.MethodPost)
	r.HandleFunc("/v1/stake/withdraw", h.Withdraw).Methods(http.MethodPost)

	// Queries
	r.HandleFunc("/v1/config", h.GetConfig).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults/{denom}", h.GetVault).Methods(http.MethodGet)
	r.HandleFunc("/v1/stakes/{staker}", h.GetStake).Methods(http.MethodGet)
	r.HandleFunc("/v1/audit", h.GetAudit).Methods(http.MethodGet)
}

// Initialize handles POST /v1/admin/initialize
func (h *StakeHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.InitializeRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Initialize(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateFee handles POST /v1/admin/fee
func (h *StakeHandler) UpdateFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.UpdateFeeRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateFee(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Deposit handles POST /v1/stake/deposit
func (h *StakeHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.DepositRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount is required")
		return
	}

	resp, err := h.service.Deposit(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Withdraw handles POST /v1/stake/withdraw
func (h *StakeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var req types.WithdrawRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Withdraw(r.Context(), caller, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConfig handles GET /v1/config
func (h *StakeHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.service.GetConfig(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"config": config})
}

// GetVault handles GET /v1/vaults/{denom}
func (h *StakeHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	vault, err := h.service.GetVault(r.Context(), mux.Vars(r)["denom"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vault": vault})
}

// GetStake handles GET /v1/stakes/{staker}
func (h *StakeHandler) GetStake(w http.ResponseWriter, r *http.Request) {
	stake, err := h.service.GetStake(r.Context(), mux.Vars(r)["staker"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stake": stake})
}

// GetAudit handles GET /v1/audit?from=&limit=
func (h *StakeHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	var (
		from  uint64 = 1
		limit        = 100
	)
	if s := r.URL.Query().Get("from"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be a sequence number")
			return
		}
		from = v
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = v
	}

	resp, err := h.service.GetAudit(r.Context(), from, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
