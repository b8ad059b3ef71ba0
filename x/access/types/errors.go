package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrUnauthorized       = errors.Register(ModuleName, 2, "You are not authorized to perform this action.")
	ErrAlreadyInitialized = errors.Register(ModuleName, 3, "access config already initialized")
	ErrNotInitialized     = errors.Register(ModuleName, 4, "access config not initialized")
	ErrInvalidAddress     = errors.Register(ModuleName, 5, "invalid address")
)
