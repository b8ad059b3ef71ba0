package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrAccountNotFound        = errors.Register(ModuleName, 2, "token account not found")
	ErrAccountExists          = errors.Register(ModuleName, 3, "token account already exists")
	ErrUnauthorized           = errors.Register(ModuleName, 4, "transfer not authorized by account owner")
	ErrInsufficientFunds      = errors.Register(ModuleName, 5, "insufficient funds")
	ErrDenomMismatch          = errors.Register(ModuleName, 6, "token accounts hold different denoms")
	ErrInvalidAmount          = errors.Register(ModuleName, 7, "invalid amount")
	ErrOverflow               = errors.Register(ModuleName, 8, "balance overflow")
	ErrCapabilityNotPermitted = errors.Register(ModuleName, 9, "module may not present derived capabilities")
	ErrInvalidAddress         = errors.Register(ModuleName, 10, "invalid address")
	ErrInvalidDenom           = errors.Register(ModuleName, 11, "invalid denom")
)
