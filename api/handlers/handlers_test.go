package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/stakevault/api/middleware"
	"github.com/openalpha/stakevault/api/types"
	accesstypes "github.com/openalpha/stakevault/x/access/types"
	svkeeper "github.com/openalpha/stakevault/x/stakevault/keeper"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// fakeStakes records the calls it receives and fails with err when set
type fakeStakes struct {
	err       error
	signer    string
	deposit   *types.DepositRequest
	auditFrom uint64
	auditLim  int
}

func (f *fakeStakes) Initialize(_ context.Context, signer string, req *types.InitializeRequest) (*types.InitializeResponse, error) {
	f.signer = signer
	if f.err != nil {
		return nil, f.err
	}
	return &types.InitializeResponse{Vault: "vault", Bump: 255}, nil
}

func (f *fakeStakes) UpdateFee(_ context.Context, signer string, req *types.UpdateFeeRequest) (*types.UpdateFeeResponse, error) {
	f.signer = signer
	if f.err != nil {
		return nil, f.err
	}
	return &types.UpdateFeeResponse{NewFeeBps: req.NewFeeBps}, nil
}

func (f *fakeStakes) Deposit(_ context.Context, signer string, req *types.DepositRequest) (*types.DepositResponse, error) {
	f.signer = signer
	f.deposit = req
	if f.err != nil {
		return nil, f.err
	}
	return &types.DepositResponse{Staker: signer, TotalStaked: req.Amount}, nil
}

func (f *fakeStakes) Withdraw(_ context.Context, signer string, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	f.signer = signer
	if f.err != nil {
		return nil, f.err
	}
	return &types.WithdrawResponse{Staker: signer}, nil
}

func (f *fakeStakes) GetConfig(context.Context) (*svtypes.GlobalConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &svtypes.GlobalConfig{Admin: "admin", WithdrawFeeBps: 100}, nil
}

func (f *fakeStakes) GetVault(_ context.Context, denom string) (*svkeeper.VaultInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &svkeeper.VaultInfo{Vault: svtypes.Vault{Denom: denom}}, nil
}

func (f *fakeStakes) GetStake(_ context.Context, staker string) (*types.StakeResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.StakeResponse{Staker: staker, Amount: "0"}, nil
}

func (f *fakeStakes) GetAudit(_ context.Context, from uint64, limit int) (*types.AuditResponse, error) {
	f.auditFrom, f.auditLim = from, limit
	return &types.AuditResponse{Entries: []svtypes.AuditEntry{}}, nil
}

func newStakeRouter(svc types.StakeService) *mux.Router {
	r := mux.NewRouter()
	NewStakeHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, signer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if signer != "" {
		req.Header.Set(middleware.SignerHeader, signer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDepositRequiresSigner(t *testing.T) {
	svc := &fakeStakes{}
	r := newStakeRouter(svc)

	rec := do(t, r, http.MethodPost, "/v1/stake/deposit", "", types.DepositRequest{TokenAccount: "acc", Amount: "5"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_signer", decodeBody(t, rec)["error"])
	require.Nil(t, svc.deposit)
}

func TestDepositPassesSignerAndBody(t *testing.T) {
	svc := &fakeStakes{}
	r := newStakeRouter(svc)

	rec := do(t, r, http.MethodPost, "/v1/stake/deposit", "alice", types.DepositRequest{TokenAccount: "acc", Amount: "5"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", svc.signer)
	require.Equal(t, "acc", svc.deposit.TokenAccount)
	require.Equal(t, "5", svc.deposit.Amount)
}

func TestDepositRejectsBadBody(t *testing.T) {
	r := newStakeRouter(&fakeStakes{})

	rec := do(t, r, http.MethodPost, "/v1/stake/deposit", "alice", map[string]string{"token_account": "acc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing_amount", decodeBody(t, rec)["error"])

	rec = do(t, r, http.MethodPost, "/v1/stake/deposit", "alice", map[string]string{"bogus": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

func TestLedgerErrorMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", svtypes.ErrUnauthorized, http.StatusForbidden, "stakevault/2"},
		{"invalid amount", svtypes.ErrInvalidAmount, http.StatusBadRequest, "stakevault/3"},
		{"wrapped no-withdraw", errorsmod.Wrap(svtypes.ErrInvalidWithdraw, "staker"), http.StatusBadRequest, "stakevault/4"},
		{"invalid fee vault", svtypes.ErrInvalidFeeVault, http.StatusBadRequest, "stakevault/5"},
		{"not initialized", svtypes.ErrNotInitialized, http.StatusNotFound, "stakevault/11"},
		{"already initialized", svtypes.ErrAlreadyInitialized, http.StatusConflict, "stakevault/10"},
		{"token funds", tokenstypes.ErrInsufficientFunds, http.StatusBadRequest, "tokens/5"},
		{"access unauthorized", accesstypes.ErrUnauthorized, http.StatusForbidden, "access/2"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "undefined/1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newStakeRouter(&fakeStakes{err: tc.err})
			rec := do(t, r, http.MethodPost, "/v1/stake/withdraw", "alice", types.WithdrawRequest{TokenAccount: "a", FeeVault: "b"})
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeBody(t, rec)["error"])
		})
	}
}

func TestInternalErrorHidesText(t *testing.T) {
	r := newStakeRouter(&fakeStakes{err: errors.New("disk on fire")})
	rec := do(t, r, http.MethodGet, "/v1/config", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestGetAuditParams(t *testing.T) {
	svc := &fakeStakes{}
	r := newStakeRouter(svc)

	rec := do(t, r, http.MethodGet, "/v1/audit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(1), svc.auditFrom)
	require.Equal(t, 100, svc.auditLim)

	rec = do(t, r, http.MethodGet, "/v1/audit?from=7&limit=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(7), svc.auditFrom)
	require.Equal(t, 3, svc.auditLim)

	rec = do(t, r, http.MethodGet, "/v1/audit?limit=-1", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/audit?from=x", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathVariables(t *testing.T) {
	r := newStakeRouter(&fakeStakes{})

	rec := do(t, r, http.MethodGet, "/v1/vaults/ustake", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	vault := decodeBody(t, rec)["vault"].(map[string]interface{})
	require.Equal(t, "ustake", vault["denom"])

	rec = do(t, r, http.MethodGet, "/v1/stakes/bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stake := decodeBody(t, rec)["stake"].(map[string]interface{})
	require.Equal(t, "bob", stake["staker"])
}

func TestMethodNotAllowed(t *testing.T) {
	r := newStakeRouter(&fakeStakes{})
	rec := do(t, r, http.MethodGet, "/v1/stake/deposit", "alice", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
