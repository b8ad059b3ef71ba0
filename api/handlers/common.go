package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	errorsmod "cosmossdk.io/errors"

	"github.com/openalpha/stakevault/api/middleware"
	accesstypes "github.com/openalpha/stakevault/x/access/types"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

var (
	forbiddenErrors = []*errorsmod.Error{
		svtypes.ErrUnauthorized,
		tokenstypes.ErrUnauthorized,
		tokenstypes.ErrCapabilityNotPermitted,
		accesstypes.ErrUnauthorized,
	}
	notFoundErrors = []*errorsmod.Error{
		svtypes.ErrNotInitialized,
		svtypes.ErrVaultNotFound,
		tokenstypes.ErrAccountNotFound,
		accesstypes.ErrNotInitialized,
	}
	conflictErrors = []*errorsmod.Error{
		svtypes.ErrAlreadyInitialized,
		tokenstypes.ErrAccountExists,
		accesstypes.ErrAlreadyInitialized,
	}
)

func isAny(err error, targets []*errorsmod.Error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a ledger error to an HTTP status
func statusFor(err error) int {
	switch {
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	}
	if codespace, _, _ := errorsmod.ABCIInfo(err, false); codespace == errorsmod.UndefinedCodespace {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// writeLedgerError writes err as {error: "<codespace>/<code>", message}.
// Unregistered errors are reported without their text.
func writeLedgerError(w http.ResponseWriter, err error) {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	writeError(w, statusFor(err), fmt.Sprintf("%s/%d", codespace, code), log)
}

// signer returns the address the request acts for, or writes an error
func signer(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := r.Header.Get(middleware.SignerHeader)
	if s == "" {
		writeError(w, http.StatusUnauthorized, "missing_signer", middleware.SignerHeader+" header is required")
		return "", false
	}
	return s, true
}

// decode reads a JSON body into v, or writes an error
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}
