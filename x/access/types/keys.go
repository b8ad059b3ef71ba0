package types

const (
	// ModuleName is the name of the access control module
	ModuleName = "access"

	// StoreKey is the store key for the module
	StoreKey = ModuleName
)

// ConfigSeed derives the address of the access config
var ConfigSeed = []byte("access_config")

// ConfigKey stores the singleton access config
var ConfigKey = []byte{0x01}

// Event types
const (
	EventTypeAccessInitialized    = "access_initialized"
	EventTypeRestrictedCall       = "restricted_function_called"
	EventTypeOwnershipTransferred = "ownership_transferred"

	AttributeKeyAdmin    = "admin"
	AttributeKeyOldAdmin = "old_admin"
	AttributeKeyNewAdmin = "new_admin"
)
