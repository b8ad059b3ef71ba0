package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisState is the module genesis state
type GenesisState struct {
	Config *GlobalConfig `json:"config,omitempty"`
	Vaults []Vault       `json:"vaults"`
	Stakes []StakeRecord `json:"stakes"`
}

// DefaultGenesis returns an uninitialized genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Vaults: []Vault{},
		Stakes: []StakeRecord{},
	}
}

// Validate checks that records are well formed and consistent with the config
func (gs GenesisState) Validate() error {
	if gs.Config == nil {
		if len(gs.Vaults) > 0 || len(gs.Stakes) > 0 {
			return fmt.Errorf("vaults and stakes require a config")
		}
		return nil
	}
	if _, err := sdk.AccAddressFromBech32(gs.Config.Admin); err != nil {
		return fmt.Errorf("config admin: %w", err)
	}
	if err := ValidateFeeBps(gs.Config.WithdrawFeeBps); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(gs.Config.Denom); err != nil {
		return fmt.Errorf("config denom: %w", err)
	}

	for _, v := range gs.Vaults {
		if v.Denom != gs.Config.Denom {
			return fmt.Errorf("vault denom %s does not match config denom %s", v.Denom, gs.Config.Denom)
		}
		if _, err := sdk.AccAddressFromBech32(v.Address); err != nil {
			return fmt.Errorf("vault %s address: %w", v.Denom, err)
		}
	}

	seen := make(map[string]bool, len(gs.Stakes))
	for _, s := range gs.Stakes {
		if _, err := sdk.AccAddressFromBech32(s.Staker); err != nil {
			return fmt.Errorf("stake staker: %w", err)
		}
		if seen[s.Staker] {
			return fmt.Errorf("duplicate stake record for %s", s.Staker)
		}
		seen[s.Staker] = true
	}
	return nil
}
