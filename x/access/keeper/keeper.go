package keeper

import (
	"context"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/pkg/derive"
	"github.com/openalpha/stakevault/x/access/types"
)

// Keeper manages the access control singleton
type Keeper struct {
	storeKey storetypes.StoreKey
	logger   log.Logger
}

// NewKeeper creates a new access keeper
func NewKeeper(storeKey storetypes.StoreKey, logger log.Logger) *Keeper {
	return &Keeper{
		storeKey: storeKey,
		logger:   logger.With("module", "x/access"),
	}
}

// GetConfig returns the access config, or nil before initialization
func (k *Keeper) GetConfig(ctx sdk.Context) *types.AccessConfig {
	bz := ctx.KVStore(k.storeKey).Get(types.ConfigKey)
	if bz == nil {
		return nil
	}
	var config types.AccessConfig
	if err := json.Unmarshal(bz, &config); err != nil {
		return nil
	}
	return &config
}

// SetConfig saves the access config
func (k *Keeper) SetConfig(ctx sdk.Context, config *types.AccessConfig) {
	bz, _ := json.Marshal(config)
	ctx.KVStore(k.storeKey).Set(types.ConfigKey, bz)
}

// Initialize makes caller the admin. It succeeds once.
func (k *Keeper) Initialize(ctx context.Context, caller string) (*types.AccessConfig, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if _, err := sdk.AccAddressFromBech32(caller); err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "caller: %s", err)
	}
	if k.GetConfig(sdkCtx) != nil {
		return nil, types.ErrAlreadyInitialized
	}
	_, bump, err := derive.FindAddress(types.ModuleName, types.ConfigSeed)
	if err != nil {
		return nil, err
	}

	config := &types.AccessConfig{Admin: caller, Bump: bump}
	k.SetConfig(sdkCtx, config)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeAccessInitialized, sdk.NewAttribute(types.AttributeKeyAdmin, caller)),
	)
	k.logger.Info("Access control initialized", "admin", caller)
	return config, nil
}

// RequireAdmin fails unless caller is the current admin
func (k *Keeper) RequireAdmin(ctx sdk.Context, caller string) (*types.AccessConfig, error) {
	config := k.GetConfig(ctx)
	if config == nil {
		return nil, types.ErrNotInitialized
	}
	if caller != config.Admin {
		return nil, types.ErrUnauthorized
	}
	return config, nil
}

// RestrictedFunction is the admin-only action. It changes no state.
func (k *Keeper) RestrictedFunction(ctx context.Context, caller string) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if _, err := k.RequireAdmin(sdkCtx, caller); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeRestrictedCall, sdk.NewAttribute(types.AttributeKeyAdmin, caller)),
	)
	k.logger.Info("Welcome, admin", "admin", caller)
	return nil
}

// TransferOwnership hands the admin role from caller to newAdmin and
// returns the previous admin
func (k *Keeper) TransferOwnership(ctx context.Context, caller, newAdmin string) (string, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	config, err := k.RequireAdmin(sdkCtx, caller)
	if err != nil {
		return "", err
	}
	if _, err := sdk.AccAddressFromBech32(newAdmin); err != nil {
		return "", errorsmod.Wrapf(types.ErrInvalidAddress, "new admin: %s", err)
	}

	oldAdmin := config.Admin
	config.Admin = newAdmin
	k.SetConfig(sdkCtx, config)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOwnershipTransferred,
			sdk.NewAttribute(types.AttributeKeyOldAdmin, oldAdmin),
			sdk.NewAttribute(types.AttributeKeyNewAdmin, newAdmin),
		),
	)
	k.logger.Info("Ownership transferred",
		"old_admin", oldAdmin,
		"new_admin", newAdmin,
	)
	return oldAdmin, nil
}

// InitGenesis loads the access config
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	if gs.Config != nil {
		k.SetConfig(ctx, gs.Config)
	}
}

// ExportGenesis exports the access config
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{Config: k.GetConfig(ctx)}
}
