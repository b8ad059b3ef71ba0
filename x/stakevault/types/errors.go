package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrUnauthorized        = errors.Register(ModuleName, 2, "You are not authorized to perform this action.")
	ErrInvalidAmount       = errors.Register(ModuleName, 3, "Amount must be greater than zero.")
	ErrInvalidWithdraw     = errors.Register(ModuleName, 4, "No tokens to withdraw.")
	ErrInvalidFeeVault     = errors.Register(ModuleName, 5, "Fee vault must be owned by admin.")
	ErrArithmeticOverflow  = errors.Register(ModuleName, 6, "arithmetic overflow")
	ErrArithmeticUnderflow = errors.Register(ModuleName, 7, "arithmetic underflow")

	// Lifecycle errors
	ErrAlreadyInitialized = errors.Register(ModuleName, 10, "staking config already initialized")
	ErrNotInitialized     = errors.Register(ModuleName, 11, "staking config not initialized")
	ErrVaultNotFound      = errors.Register(ModuleName, 12, "vault not found")
	ErrInvalidFee         = errors.Register(ModuleName, 13, "fee must not exceed 10000 basis points")
	ErrInvalidAddress     = errors.Register(ModuleName, 14, "invalid address")
	ErrInvalidDenom       = errors.Register(ModuleName, 15, "invalid denom")
)
