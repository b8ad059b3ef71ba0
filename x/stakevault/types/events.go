package types

import (
	"encoding/json"
)

// Event types
const (
	EventTypeStakingInitialized = "staking_initialized"
	EventTypeFeeUpdated         = "fee_updated"
	EventTypeTokensStaked       = "tokens_staked"
	EventTypeTokensWithdrawn    = "tokens_withdrawn"
)

// Event attribute keys
const (
	AttributeKeyAdmin       = "admin"
	AttributeKeyDenom       = "denom"
	AttributeKeyVault       = "vault"
	AttributeKeyStaker      = "staker"
	AttributeKeyAmount      = "amount"
	AttributeKeyFee         = "fee"
	AttributeKeyTotalStaked = "total_staked"
	AttributeKeyOldFee      = "old_fee"
	AttributeKeyNewFee      = "new_fee"
)

// AuditVersion is the schema version written with every audit entry
const AuditVersion uint32 = 1

// AuditEntry is one record of the append-only audit log
type AuditEntry struct {
	Sequence uint64          `json:"sequence"`
	Version  uint32          `json:"version"`
	Kind     string          `json:"kind"`
	Height   int64           `json:"height"`
	Time     int64           `json:"time"`
	Payload  json.RawMessage `json:"payload"`
}

// StakingInitialized is recorded when the config and vault are created
type StakingInitialized struct {
	Admin          string `json:"admin"`
	Denom          string `json:"denom"`
	Vault          string `json:"vault"`
	WithdrawFeeBps uint64 `json:"withdraw_fee_bps"`
}

// FeeUpdated is recorded on every fee change
type FeeUpdated struct {
	OldFee uint64 `json:"old_fee"`
	NewFee uint64 `json:"new_fee"`
}

// TokensStaked is recorded on every deposit
type TokensStaked struct {
	Staker      string `json:"staker"`
	Amount      uint64 `json:"amount"`
	TotalStaked uint64 `json:"total_staked"`
}

// TokensWithdrawn is recorded on every withdrawal. Amount is the part paid
// to the staker, net of Fee.
type TokensWithdrawn struct {
	Staker      string `json:"staker"`
	Amount      uint64 `json:"amount"`
	Fee         uint64 `json:"fee"`
	TotalStaked uint64 `json:"total_staked"`
}

// Decode unmarshals the entry payload into v
func (e AuditEntry) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}
