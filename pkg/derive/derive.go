// Package derive computes deterministic module-owned addresses from seeds.
//
// An address is derived from a module name, an ordered list of seeds and a
// one-byte bump. The bump lets a caller search for a candidate that passes
// address validation; FindAddress returns the first viable bump counting
// down from 255, which is the canonical bump stored alongside the record.
package derive

import (
	"bytes"
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

// CanonicalBump is the first bump tried by FindAddress.
const CanonicalBump uint8 = 255

// ErrNoViableBump is returned when no bump yields a valid address.
var ErrNoViableBump = errors.New("derive: no viable bump for seeds")

// Address derives the address for module, seeds and bump.
func Address(module string, bump uint8, seeds ...[]byte) sdk.AccAddress {
	keys := make([][]byte, 0, len(seeds)+1)
	keys = append(keys, seeds...)
	keys = append(keys, []byte{bump})
	return sdk.AccAddress(address.Module(module, keys...))
}

// FindAddress returns the address and canonical bump for module and seeds.
func FindAddress(module string, seeds ...[]byte) (sdk.AccAddress, uint8, error) {
	for bump := int(CanonicalBump); bump >= 0; bump-- {
		addr := Address(module, uint8(bump), seeds...)
		if err := sdk.VerifyAddressFormat(addr); err == nil {
			return addr, uint8(bump), nil
		}
	}
	return nil, 0, ErrNoViableBump
}

// MustFindAddress is FindAddress for seeds known to be valid at init time.
func MustFindAddress(module string, seeds ...[]byte) (sdk.AccAddress, uint8) {
	addr, bump, err := FindAddress(module, seeds...)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// Capability is the authority a module presents to spend from an account
// owned by one of its derived addresses. It is never persisted; the owning
// module builds it for the duration of a single operation.
type Capability struct {
	Module string
	Seeds  [][]byte
	Bump   uint8
}

// NewCapability builds a capability for module over seeds and bump.
func NewCapability(module string, bump uint8, seeds ...[]byte) Capability {
	return Capability{Module: module, Seeds: seeds, Bump: bump}
}

// Address re-derives the account the capability speaks for.
func (c Capability) Address() sdk.AccAddress {
	return Address(c.Module, c.Bump, c.Seeds...)
}

// Authorizes reports whether the capability re-derives owner.
func (c Capability) Authorizes(owner sdk.AccAddress) bool {
	if c.Module == "" || len(owner) == 0 {
		return false
	}
	return bytes.Equal(c.Address(), owner)
}
