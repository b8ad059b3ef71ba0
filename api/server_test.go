package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/stakevault/api/middleware"
	"github.com/openalpha/stakevault/api/types"
	"github.com/openalpha/stakevault/api/websocket"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
)

var (
	adminAddr  = sdk.AccAddress([]byte("admin_______________")).String()
	stakerAddr = sdk.AccAddress([]byte("staker______________")).String()
	mintAddr   = sdk.AccAddress([]byte("mint_authority______")).String()
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DisableRateLimit = true
	cfg.BootstrapAdmin = adminAddr
	cfg.MintAuthority = mintAddr

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func call(t *testing.T, h http.Handler, method, path, signer string, body interface{}, out interface{}) int {
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
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type accountEnvelope struct {
	Account types.TokenAccountResponse `json:"account"`
}

// openAccount creates owner's associated account and returns its address
func openAccount(t *testing.T, h http.Handler, owner string) string {
	t.Helper()
	var out accountEnvelope
	code := call(t, h, http.MethodPost, "/v1/tokens/accounts", owner, types.CreateAccountRequest{Denom: "ustake"}, &out)
	require.Equal(t, http.StatusCreated, code)
	return out.Account.Address
}

func balance(t *testing.T, h http.Handler, address string) string {
	t.Helper()
	var out accountEnvelope
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/v1/tokens/"+address, "", nil, &out))
	return out.Account.Amount
}

func TestStakingLifecycle(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	var initResp types.InitializeResponse
	code := call(t, h, http.MethodPost, "/v1/admin/initialize", adminAddr,
		types.InitializeRequest{Denom: "ustake", WithdrawFeeBps: 100}, &initResp)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, uint8(255), initResp.Bump)
	require.Equal(t, adminAddr, initResp.Config.Admin)

	stakerAcc := openAccount(t, h, stakerAddr)
	feeAcc := openAccount(t, h, adminAddr)

	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/v1/tokens/mint", mintAddr,
		types.MintRequest{Recipient: stakerAcc, Amount: "1000"}, nil))

	var depResp types.DepositResponse
	code = call(t, h, http.MethodPost, "/v1/stake/deposit", stakerAddr,
		types.DepositRequest{TokenAccount: stakerAcc, Amount: "1000"}, &depResp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "1000", depResp.TotalStaked)
	require.Equal(t, "0", balance(t, h, stakerAcc))

	var stake struct {
		Stake types.StakeResponse `json:"stake"`
	}
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/v1/stakes/"+stakerAddr, "", nil, &stake))
	require.Equal(t, "1000", stake.Stake.Amount)

	var vault struct {
		Vault struct {
			Address string `json:"address"`
			Balance uint64 `json:"balance"`
		} `json:"vault"`
	}
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/v1/vaults/ustake", "", nil, &vault))
	require.Equal(t, initResp.Vault, vault.Vault.Address)
	require.Equal(t, uint64(1000), vault.Vault.Balance)

	var wdResp types.WithdrawResponse
	code = call(t, h, http.MethodPost, "/v1/stake/withdraw", stakerAddr,
		types.WithdrawRequest{TokenAccount: stakerAcc, FeeVault: feeAcc}, &wdResp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "1000", wdResp.Total)
	require.Equal(t, "10", wdResp.Fee)
	require.Equal(t, "990", wdResp.UserAmount)

	require.Equal(t, "990", balance(t, h, stakerAcc))
	require.Equal(t, "10", balance(t, h, feeAcc))

	// nothing left to withdraw
	var errResp map[string]string
	code = call(t, h, http.MethodPost, "/v1/stake/withdraw", stakerAddr,
		types.WithdrawRequest{TokenAccount: stakerAcc, FeeVault: feeAcc}, &errResp)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "stakevault/4", errResp["error"])

	var audit types.AuditResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/v1/audit", "", nil, &audit))
	require.Equal(t, uint64(3), audit.Latest)
	kinds := make([]string, 0, len(audit.Entries))
	for _, e := range audit.Entries {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []string{
		svtypes.EventTypeStakingInitialized,
		svtypes.EventTypeTokensStaked,
		svtypes.EventTypeTokensWithdrawn,
	}, kinds)
}

func TestFailedWriteDoesNotAdvanceHeight(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	code := call(t, h, http.MethodPost, "/v1/admin/initialize", stakerAddr,
		types.InitializeRequest{Denom: "ustake", WithdrawFeeBps: 100}, nil)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, int64(0), srv.Ledger().Height())

	var errResp map[string]string
	require.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/v1/config", "", nil, &errResp))
	require.Equal(t, "stakevault/11", errResp["error"])

	code = call(t, h, http.MethodPost, "/v1/admin/initialize", adminAddr,
		types.InitializeRequest{Denom: "ustake", WithdrawFeeBps: 100}, nil)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, int64(1), srv.Ledger().Height())

	code = call(t, h, http.MethodPost, "/v1/admin/fee", stakerAddr, types.UpdateFeeRequest{NewFeeBps: 0}, nil)
	require.Equal(t, http.StatusForbidden, code)

	var feeResp types.UpdateFeeResponse
	code = call(t, h, http.MethodPost, "/v1/admin/fee", adminAddr, types.UpdateFeeRequest{NewFeeBps: 250}, &feeResp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, uint64(100), feeResp.OldFeeBps)
	require.Equal(t, uint64(250), feeResp.NewFeeBps)
	require.Equal(t, int64(2), srv.Ledger().Height())
}

func TestAccessEndpoints(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	require.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/v1/access", "", nil, nil))
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/v1/access/initialize", adminAddr, nil, nil))
	require.Equal(t, http.StatusConflict, call(t, h, http.MethodPost, "/v1/access/initialize", stakerAddr, nil, nil))

	require.Equal(t, http.StatusForbidden, call(t, h, http.MethodPost, "/v1/access/restricted", stakerAddr, nil, nil))
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/v1/access/restricted", adminAddr, nil, nil))

	var resp types.TransferOwnershipResponse
	code := call(t, h, http.MethodPost, "/v1/access/transfer", adminAddr,
		types.TransferOwnershipRequest{NewAdmin: stakerAddr}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, adminAddr, resp.OldAdmin)
	require.Equal(t, stakerAddr, resp.NewAdmin)

	require.Equal(t, http.StatusForbidden, call(t, h, http.MethodPost, "/v1/access/restricted", adminAddr, nil, nil))
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/v1/access/restricted", stakerAddr, nil, nil))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	var health map[string]interface{}
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", nil, &health))
	require.Equal(t, "healthy", health["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "stakevault_api_requests_total")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuditFeed(t *testing.T) {
	srv := newTestServer(t)
	go srv.Hub().Run()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg websocket.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Action: "subscribe", Channel: websocket.ChannelAudit}))
	require.Equal(t, "subscribed", read().Type)

	code := call(t, srv.Handler(), http.MethodPost, "/v1/admin/initialize", adminAddr,
		types.InitializeRequest{Denom: "ustake", WithdrawFeeBps: 100}, nil)
	require.Equal(t, http.StatusCreated, code)

	msg := read()
	require.Equal(t, svtypes.EventTypeStakingInitialized, msg.Type)
	require.Equal(t, websocket.ChannelAudit, msg.Channel)
}
