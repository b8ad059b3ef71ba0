package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// InitGenesis loads the config, vaults and stake records
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) error {
	if gs.Config == nil {
		return nil
	}
	k.SetConfig(ctx, gs.Config)
	for i := range gs.Vaults {
		k.SetVault(ctx, &gs.Vaults[i])
	}
	for i := range gs.Stakes {
		if err := k.SetStakeRecord(ctx, &gs.Stakes[i]); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports the module state. The audit log is not exported.
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	gs.Config = k.GetConfig(ctx)
	for _, v := range k.GetAllVaults(ctx) {
		gs.Vaults = append(gs.Vaults, *v)
	}
	for _, s := range k.GetAllStakeRecords(ctx) {
		gs.Stakes = append(gs.Stakes, *s)
	}
	return gs
}
