package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// RegisterInvariants registers the module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k *Keeper) {
	ir.RegisterRoute(types.ModuleName, "vault-solvency", VaultSolvencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "fee-bound", FeeBoundInvariant(k))
}

// VaultSolvencyInvariant checks that the vault holds at least the sum of all
// recorded stakes
func VaultSolvencyInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		config := k.GetConfig(ctx)
		if config == nil {
			return sdk.FormatInvariant(types.ModuleName, "vault-solvency", "not initialized"), false
		}
		balance, err := k.VaultBalance(ctx, config.Denom)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "vault-solvency", err.Error()), true
		}
		staked, ok := k.TotalStaked(ctx)
		if !ok {
			return sdk.FormatInvariant(types.ModuleName, "vault-solvency", "stake total overflows"), true
		}
		broken := balance < staked
		return sdk.FormatInvariant(types.ModuleName, "vault-solvency",
			fmt.Sprintf("vault balance %d, recorded stakes %d", balance, staked)), broken
	}
}

// FeeBoundInvariant checks that the configured fee never exceeds 100%
func FeeBoundInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		config := k.GetConfig(ctx)
		if config == nil {
			return sdk.FormatInvariant(types.ModuleName, "fee-bound", "not initialized"), false
		}
		broken := config.WithdrawFeeBps > types.MaxFeeBps
		return sdk.FormatInvariant(types.ModuleName, "fee-bound",
			fmt.Sprintf("withdraw fee %d bps", config.WithdrawFeeBps)), broken
	}
}
