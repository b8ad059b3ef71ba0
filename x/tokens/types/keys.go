package types

const (
	// ModuleName is the name of the token custody module
	ModuleName = "tokens"

	// StoreKey is the store key for the module
	StoreKey = ModuleName
)

// Store key prefixes
var (
	AccountKeyPrefix    = []byte{0x01}
	OwnerIndexKeyPrefix = []byte{0x02}
	SupplyKeyPrefix     = []byte{0x03}
)

// AssociatedSeed is the middle seed of an owner's associated account for a denom.
var AssociatedSeed = []byte("token")

// AccountKey returns the store key for a token account
func AccountKey(address string) []byte {
	return append(append([]byte{}, AccountKeyPrefix...), []byte(address)...)
}

// OwnerIndexKey returns the index key linking an owner to one of its accounts
func OwnerIndexKey(owner, address string) []byte {
	key := append(append([]byte{}, OwnerIndexKeyPrefix...), []byte(owner)...)
	key = append(key, '/')
	return append(key, []byte(address)...)
}

// OwnerIndexPrefix returns the prefix covering every account of an owner
func OwnerIndexPrefix(owner string) []byte {
	key := append(append([]byte{}, OwnerIndexKeyPrefix...), []byte(owner)...)
	return append(key, '/')
}

// SupplyKey returns the store key for the minted supply of a denom
func SupplyKey(denom string) []byte {
	return append(append([]byte{}, SupplyKeyPrefix...), []byte(denom)...)
}
