// Package sdk is a Go client for the stakevault HTTP API
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openalpha/stakevault/api/middleware"
	"github.com/openalpha/stakevault/api/types"
	accesstypes "github.com/openalpha/stakevault/x/access/types"
	svkeeper "github.com/openalpha/stakevault/x/stakevault/keeper"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stakevault api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one API server on behalf of one signer
type Client struct {
	baseURL string
	signer  string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSigner sets the address sent with every write
func WithSigner(address string) Option {
	return func(c *Client) { c.signer = address }
}

// NewClient creates a client for baseURL, e.g. http://localhost:8080
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// As returns a copy of the client that signs as address
func (c *Client) As(address string) *Client {
	cp := *c
	cp.signer = address
	return &cp
}

// Signer returns the address the client signs with
func (c *Client) Signer() string {
	return c.signer
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bz)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.signer != "" {
		req.Header.Set(middleware.SignerHeader, c.signer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = "unknown"
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Initialize creates the global config and the vault for denom
func (c *Client) Initialize(ctx context.Context, denom string, feeBps uint64) (*types.InitializeResponse, error) {
	var out types.InitializeResponse
	req := types.InitializeRequest{Denom: denom, WithdrawFeeBps: feeBps}
	if err := c.do(ctx, http.MethodPost, "/v1/admin/initialize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFee changes the withdrawal fee
func (c *Client) UpdateFee(ctx context.Context, feeBps uint64) (*types.UpdateFeeResponse, error) {
	var out types.UpdateFeeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/fee", types.UpdateFeeRequest{NewFeeBps: feeBps}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deposit stakes amount from tokenAccount
func (c *Client) Deposit(ctx context.Context, tokenAccount string, amount uint64) (*types.DepositResponse, error) {
	var out types.DepositResponse
	req := types.DepositRequest{TokenAccount: tokenAccount, Amount: types.FormatAmount(amount)}
	if err := c.do(ctx, http.MethodPost, "/v1/stake/deposit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Withdraw returns the full stake to tokenAccount and the fee to feeVault
func (c *Client) Withdraw(ctx context.Context, tokenAccount, feeVault string) (*types.WithdrawResponse, error) {
	var out types.WithdrawResponse
	req := types.WithdrawRequest{TokenAccount: tokenAccount, FeeVault: feeVault}
	if err := c.do(ctx, http.MethodPost, "/v1/stake/withdraw", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Config returns the global staking config
func (c *Client) Config(ctx context.Context) (*svtypes.GlobalConfig, error) {
	var out struct {
		Config *svtypes.GlobalConfig `json:"config"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/config", nil, &out); err != nil {
		return nil, err
	}
	return out.Config, nil
}

// Vault returns the vault for denom with its balance
func (c *Client) Vault(ctx context.Context, denom string) (*svkeeper.VaultInfo, error) {
	var out struct {
		Vault *svkeeper.VaultInfo `json:"vault"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/vaults/"+url.PathEscape(denom), nil, &out); err != nil {
		return nil, err
	}
	return out.Vault, nil
}

// Stake returns the stake record of staker
func (c *Client) Stake(ctx context.Context, staker string) (*types.StakeResponse, error) {
	var out struct {
		Stake *types.StakeResponse `json:"stake"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/stakes/"+url.PathEscape(staker), nil, &out); err != nil {
		return nil, err
	}
	return out.Stake, nil
}

// Audit returns up to limit audit entries starting at sequence from
func (c *Client) Audit(ctx context.Context, from uint64, limit int) (*types.AuditResponse, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatUint(from, 10))
	q.Set("limit", strconv.Itoa(limit))

	var out types.AuditResponse
	if err := c.do(ctx, http.MethodGet, "/v1/audit?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAccount opens the associated token account of owner for denom.
// An empty owner means the signer.
func (c *Client) CreateAccount(ctx context.Context, owner, denom string) (*types.TokenAccountResponse, error) {
	var out struct {
		Account *types.TokenAccountResponse `json:"account"`
	}
	req := types.CreateAccountRequest{Owner: owner, Denom: denom}
	if err := c.do(ctx, http.MethodPost, "/v1/tokens/accounts", req, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

// Mint credits recipient; the signer must be the mint authority
func (c *Client) Mint(ctx context.Context, recipient string, amount uint64) (*types.TokenAccountResponse, error) {
	var out struct {
		Account *types.TokenAccountResponse `json:"account"`
	}
	req := types.MintRequest{Recipient: recipient, Amount: types.FormatAmount(amount)}
	if err := c.do(ctx, http.MethodPost, "/v1/tokens/mint", req, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

// Transfer moves amount between two token accounts owned by the signer
func (c *Client) Transfer(ctx context.Context, from, to string, amount uint64) error {
	req := types.TransferRequest{From: from, To: to, Amount: types.FormatAmount(amount)}
	return c.do(ctx, http.MethodPost, "/v1/tokens/transfer", req, nil)
}

// TokenAccount returns the token account at address
func (c *Client) TokenAccount(ctx context.Context, address string) (*types.TokenAccountResponse, error) {
	var out struct {
		Account *types.TokenAccountResponse `json:"account"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tokens/"+url.PathEscape(address), nil, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

// InitializeAccess makes the signer the access admin
func (c *Client) InitializeAccess(ctx context.Context) (*accesstypes.AccessConfig, error) {
	var out struct {
		Config *accesstypes.AccessConfig `json:"config"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/access/initialize", nil, &out); err != nil {
		return nil, err
	}
	return out.Config, nil
}

// Restricted calls the admin-only operation
func (c *Client) Restricted(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/access/restricted", nil, nil)
}

// TransferOwnership hands the access admin role to newAdmin
func (c *Client) TransferOwnership(ctx context.Context, newAdmin string) (*types.TransferOwnershipResponse, error) {
	var out types.TransferOwnershipResponse
	req := types.TransferOwnershipRequest{NewAdmin: newAdmin}
	if err := c.do(ctx, http.MethodPost, "/v1/access/transfer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Access returns the access config
func (c *Client) Access(ctx context.Context) (*accesstypes.AccessConfig, error) {
	var out struct {
		Config *accesstypes.AccessConfig `json:"config"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/access", nil, &out); err != nil {
		return nil, err
	}
	return out.Config, nil
}

// AuditEvent is one entry pushed on an audit feed
type AuditEvent struct {
	Type    string             `json:"type"`
	Channel string             `json:"channel"`
	Data    svtypes.AuditEntry `json:"data"`
}

// SubscribeAudit streams audit entries from channel ("audit" or
// "stakes:<address>") until ctx is cancelled or the connection drops.
// The returned channel is closed when the stream ends.
func (c *Client) SubscribeAudit(ctx context.Context, channel string) (<-chan AuditEvent, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	if err := conn.WriteJSON(map[string]string{"action": "subscribe", "channel": channel}); err != nil {
		conn.Close()
		return nil, err
	}

	var ack struct {
		Type    string          `json:"type"`
		Channel string          `json:"channel"`
		Data    json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, err
	}
	if ack.Type != "subscribed" {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %s %s", channel, ack.Type, string(ack.Data))
	}

	events := make(chan AuditEvent, 64)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		for {
			var ev AuditEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Data.Sequence == 0 {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
