package types

import (
	"context"
	"time"

	accesstypes "github.com/openalpha/stakevault/x/access/types"
	svkeeper "github.com/openalpha/stakevault/x/stakevault/keeper"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokentypes "github.com/openalpha/stakevault/x/tokens/types"
)

// Amounts travel as decimal strings so that JavaScript clients do not lose
// precision on values above 2^53.

// InitializeRequest is the body of POST /v1/admin/initialize
type InitializeRequest struct {
	Denom          string `json:"denom"`
	WithdrawFeeBps uint64 `json:"withdraw_fee_bps"`
}

// InitializeResponse describes the created vault
type InitializeResponse struct {
	Config *svtypes.GlobalConfig `json:"config"`
	Vault  string                `json:"vault"`
	Bump   uint8                 `json:"bump"`
}

// UpdateFeeRequest is the body of POST /v1/admin/fee
type UpdateFeeRequest struct {
	NewFeeBps uint64 `json:"new_fee_bps"`
}

// UpdateFeeResponse reports the fee change
type UpdateFeeResponse struct {
	OldFeeBps uint64 `json:"old_fee_bps"`
	NewFeeBps uint64 `json:"new_fee_bps"`
}

// DepositRequest is the body of POST /v1/stake/deposit
type DepositRequest struct {
	TokenAccount string `json:"token_account"`
	Amount       string `json:"amount"`
}

// DepositResponse reports the staker's record after the deposit
type DepositResponse struct {
	Staker      string `json:"staker"`
	TotalStaked string `json:"total_staked"`
	DepositTs   int64  `json:"deposit_ts"`
}

// WithdrawRequest is the body of POST /v1/stake/withdraw
type WithdrawRequest struct {
	TokenAccount string `json:"token_account"`
	FeeVault     string `json:"fee_vault"`
}

// WithdrawResponse reports how a withdrawal was split
type WithdrawResponse struct {
	Staker     string `json:"staker"`
	Total      string `json:"total"`
	Fee        string `json:"fee"`
	UserAmount string `json:"user_amount"`
}

// StakeResponse is a staker's current record
type StakeResponse struct {
	Staker    string `json:"staker"`
	Amount    string `json:"amount"`
	DepositTs int64  `json:"deposit_ts"`
}

// AuditResponse is a page of the audit log
type AuditResponse struct {
	Entries []svtypes.AuditEntry `json:"entries"`
	Latest  uint64               `json:"latest"`
}

// CreateAccountRequest is the body of POST /v1/tokens/accounts. The
// account is created at the signer's associated address for Denom unless
// Owner names someone else.
type CreateAccountRequest struct {
	Owner string `json:"owner,omitempty"`
	Denom string `json:"denom"`
}

// MintRequest is the body of POST /v1/tokens/mint
type MintRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// TransferRequest is the body of POST /v1/tokens/transfer
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// TokenAccountResponse is a token account
type TokenAccountResponse struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// TransferOwnershipRequest is the body of POST /v1/access/transfer
type TransferOwnershipRequest struct {
	NewAdmin string `json:"new_admin"`
}

// TransferOwnershipResponse reports the ownership change
type TransferOwnershipResponse struct {
	OldAdmin string `json:"old_admin"`
	NewAdmin string `json:"new_admin"`
}

// StakeService serves the staking ledger. The signer argument is the
// principal the call acts for.
type StakeService interface {
	Initialize(ctx context.Context, signer string, req *InitializeRequest) (*InitializeResponse, error)
	UpdateFee(ctx context.Context, signer string, req *UpdateFeeRequest) (*UpdateFeeResponse, error)
	Deposit(ctx context.Context, signer string, req *DepositRequest) (*DepositResponse, error)
	Withdraw(ctx context.Context, signer string, req *WithdrawRequest) (*WithdrawResponse, error)

	GetConfig(ctx context.Context) (*svtypes.GlobalConfig, error)
	GetVault(ctx context.Context, denom string) (*svkeeper.VaultInfo, error)
	GetStake(ctx context.Context, staker string) (*StakeResponse, error)
	GetAudit(ctx context.Context, from uint64, limit int) (*AuditResponse, error)
}

// TokenService serves token accounts
type TokenService interface {
	CreateAccount(ctx context.Context, signer string, req *CreateAccountRequest) (*TokenAccountResponse, error)
	Mint(ctx context.Context, signer string, req *MintRequest) (*TokenAccountResponse, error)
	Transfer(ctx context.Context, signer string, req *TransferRequest) error
	GetAccount(ctx context.Context, address string) (*TokenAccountResponse, error)
}

// AccessService serves the access-control module
type AccessService interface {
	InitializeAccess(ctx context.Context, signer string) (*accesstypes.AccessConfig, error)
	RestrictedFunction(ctx context.Context, signer string) error
	TransferOwnership(ctx context.Context, signer string, req *TransferOwnershipRequest) (*TransferOwnershipResponse, error)
	GetAccess(ctx context.Context) (*accesstypes.AccessConfig, error)
}

// NewTokenAccountResponse converts a token account
func NewTokenAccountResponse(acc *tokentypes.TokenAccount) *TokenAccountResponse {
	return &TokenAccountResponse{
		Address: acc.Address,
		Owner:   acc.Owner,
		Denom:   acc.Denom,
		Amount:  FormatAmount(acc.Amount),
	}
}

// NowMillis returns current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
