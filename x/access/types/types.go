package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccessConfig is the singleton holding the current admin
type AccessConfig struct {
	Admin string `json:"admin"`
	Bump  uint8  `json:"bump"`
}

// GenesisState is the module genesis state
type GenesisState struct {
	Config *AccessConfig `json:"config,omitempty"`
}

// DefaultGenesis returns an uninitialized genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{}
}

// Validate checks the admin address when a config is present
func (gs GenesisState) Validate() error {
	if gs.Config == nil {
		return nil
	}
	if _, err := sdk.AccAddressFromBech32(gs.Config.Admin); err != nil {
		return fmt.Errorf("access admin: %w", err)
	}
	return nil
}
