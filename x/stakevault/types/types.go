package types

import (
	"time"
)

// GlobalConfig is the singleton staking configuration. Admin and Denom are
// fixed at initialization; only the admin may change WithdrawFeeBps.
type GlobalConfig struct {
	Admin          string `json:"admin"`
	WithdrawFeeBps uint64 `json:"withdraw_fee_bps"`
	Denom          string `json:"denom"`
	Bump           uint8  `json:"bump"`
}

// Vault is the pooled custody account for one denom. Its token account
// lives at Address and is owned by Address itself, so only a capability
// re-deriving Address from (vault, Denom, Bump) can spend from it.
type Vault struct {
	Denom     string    `json:"denom"`
	Address   string    `json:"address"`
	Bump      uint8     `json:"bump"`
	CreatedAt time.Time `json:"created_at"`
}

// StakeRecord is a principal's recorded balance in the vault
type StakeRecord struct {
	Staker    string `json:"staker"`
	Amount    uint64 `json:"amount"`
	DepositTs int64  `json:"deposit_ts"`
}

// WithdrawResult describes a completed withdrawal
type WithdrawResult struct {
	Staker     string `json:"staker"`
	Total      uint64 `json:"total"`
	Fee        uint64 `json:"fee"`
	UserAmount uint64 `json:"user_amount"`
}
