package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// Initialize creates the global config and the vault for denom. Only the
// bootstrap admin may call it, and only once.
func (k *Keeper) Initialize(ctx context.Context, payer, denom string, feeBps uint64) (*types.GlobalConfig, *types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if k.bootstrapAdmin == "" || payer != k.bootstrapAdmin {
		return nil, nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the bootstrap admin", payer)
	}
	if k.GetConfig(sdkCtx) != nil {
		return nil, nil, types.ErrAlreadyInitialized
	}
	if err := types.ValidateFeeBps(feeBps); err != nil {
		return nil, nil, err
	}
	if err := sdk.ValidateDenom(denom); err != nil {
		return nil, nil, errorsmod.Wrap(types.ErrInvalidDenom, err.Error())
	}

	_, configBump, err := ConfigAddress()
	if err != nil {
		return nil, nil, err
	}
	vaultAddr, vaultBump, err := VaultAddress(denom)
	if err != nil {
		return nil, nil, err
	}

	// The vault's token account is owned by its own derived address.
	if _, err := k.tokenKeeper.CreateAccount(sdkCtx, vaultAddr.String(), vaultAddr.String(), denom); err != nil {
		return nil, nil, err
	}

	config := &types.GlobalConfig{
		Admin:          payer,
		WithdrawFeeBps: feeBps,
		Denom:          denom,
		Bump:           configBump,
	}
	vault := &types.Vault{
		Denom:     denom,
		Address:   vaultAddr.String(),
		Bump:      vaultBump,
		CreatedAt: sdkCtx.BlockTime(),
	}
	k.SetConfig(sdkCtx, config)
	k.SetVault(sdkCtx, vault)

	if err := k.appendAudit(sdkCtx, types.EventTypeStakingInitialized, types.StakingInitialized{
		Admin:          payer,
		Denom:          denom,
		Vault:          vault.Address,
		WithdrawFeeBps: feeBps,
	}); err != nil {
		return nil, nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeStakingInitialized,
			sdk.NewAttribute(types.AttributeKeyAdmin, payer),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyVault, vault.Address),
			sdk.NewAttribute(types.AttributeKeyFee, strconv.FormatUint(feeBps, 10)),
		),
	)

	k.logger.Info("Staking initialized",
		"admin", payer,
		"denom", denom,
		"vault", vault.Address,
		"withdraw_fee_bps", feeBps,
	)

	return config, vault, nil
}

// RequireAdmin fails unless caller is the admin recorded in the config
func (k *Keeper) RequireAdmin(ctx sdk.Context, caller string) (*types.GlobalConfig, error) {
	config := k.GetConfig(ctx)
	if config == nil {
		return nil, types.ErrNotInitialized
	}
	if caller != config.Admin {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the admin", caller)
	}
	return config, nil
}

// UpdateFee replaces the withdrawal fee and returns the previous one
func (k *Keeper) UpdateFee(ctx context.Context, admin string, newFeeBps uint64) (uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	config, err := k.RequireAdmin(sdkCtx, admin)
	if err != nil {
		return 0, err
	}
	if err := types.ValidateFeeBps(newFeeBps); err != nil {
		return 0, err
	}

	oldFee := config.WithdrawFeeBps
	config.WithdrawFeeBps = newFeeBps
	k.SetConfig(sdkCtx, config)

	if err := k.appendAudit(sdkCtx, types.EventTypeFeeUpdated, types.FeeUpdated{
		OldFee: oldFee,
		NewFee: newFeeBps,
	}); err != nil {
		return 0, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeFeeUpdated,
			sdk.NewAttribute(types.AttributeKeyOldFee, strconv.FormatUint(oldFee, 10)),
			sdk.NewAttribute(types.AttributeKeyNewFee, strconv.FormatUint(newFeeBps, 10)),
		),
	)

	k.logger.Info("Withdraw fee updated",
		"old_fee_bps", oldFee,
		"new_fee_bps", newFeeBps,
	)

	return oldFee, nil
}
