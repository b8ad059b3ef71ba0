package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/tokens/types"
)

// InitGenesis loads token accounts and recomputes per-denom supply
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	supply := make(map[string]uint64)
	for i := range gs.Accounts {
		acc := gs.Accounts[i]
		k.SetAccount(ctx, &acc)
		supply[acc.Denom] += acc.Amount
	}
	for denom, total := range supply {
		k.setSupply(ctx, denom, total)
	}
}

// ExportGenesis exports every token account
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	for _, acc := range k.GetAllAccounts(ctx) {
		gs.Accounts = append(gs.Accounts, *acc)
	}
	return gs
}
