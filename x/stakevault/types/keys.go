package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName is the name of the staking vault module
	ModuleName = "stakevault"

	// StoreKey is the primary store key for the module
	StoreKey = ModuleName

	// AuditStoreKey is the store key of the append-only audit log
	AuditStoreKey = ModuleName + "_audit"
)

// Derivation seeds
var (
	ConfigSeed = []byte("config")
	VaultSeed  = []byte("vault")
	UserSeed   = []byte("user")
)

// Primary store key prefixes
var (
	ConfigKey      = []byte{0x01}
	VaultKeyPrefix = []byte{0x02}
	StakeKeyPrefix = []byte{0x03}
)

// Audit store key prefixes
var (
	AuditSequenceKey    = []byte{0x01}
	AuditEntryKeyPrefix = []byte{0x02}
)

// VaultKey returns the store key for the vault of denom
func VaultKey(denom string) []byte {
	return append(append([]byte{}, VaultKeyPrefix...), []byte(denom)...)
}

// StakeKey returns the store key for a stake record given its derived address
func StakeKey(recordAddr []byte) []byte {
	return append(append([]byte{}, StakeKeyPrefix...), recordAddr...)
}

// AuditEntryKey returns the store key for the audit entry at seq
func AuditEntryKey(seq uint64) []byte {
	return append(append([]byte{}, AuditEntryKeyPrefix...), sdk.Uint64ToBigEndian(seq)...)
}
