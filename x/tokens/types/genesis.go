package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisState is the module genesis state
type GenesisState struct {
	Accounts []TokenAccount `json:"accounts"`
}

// DefaultGenesis returns an empty genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{Accounts: []TokenAccount{}}
}

// Validate checks addresses, denoms and address uniqueness
func (gs GenesisState) Validate() error {
	seen := make(map[string]bool, len(gs.Accounts))
	for _, acc := range gs.Accounts {
		if _, err := sdk.AccAddressFromBech32(acc.Address); err != nil {
			return fmt.Errorf("account %q: %w", acc.Address, err)
		}
		if _, err := sdk.AccAddressFromBech32(acc.Owner); err != nil {
			return fmt.Errorf("account %s owner: %w", acc.Address, err)
		}
		if err := sdk.ValidateDenom(acc.Denom); err != nil {
			return fmt.Errorf("account %s: %w", acc.Address, err)
		}
		if seen[acc.Address] {
			return fmt.Errorf("duplicate token account %s", acc.Address)
		}
		seen[acc.Address] = true
	}
	return nil
}
