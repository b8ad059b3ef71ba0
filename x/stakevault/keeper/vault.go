package keeper

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/pkg/derive"
	"github.com/openalpha/stakevault/x/stakevault/types"
)

// VaultAddress derives the custody address and canonical bump for denom
func VaultAddress(denom string) (sdk.AccAddress, uint8, error) {
	return derive.FindAddress(types.ModuleName, types.VaultSeed, []byte(denom))
}

// ConfigAddress derives the config address and canonical bump
func ConfigAddress() (sdk.AccAddress, uint8, error) {
	return derive.FindAddress(types.ModuleName, types.ConfigSeed)
}

// StakeRecordAddress derives the address identifying staker's record
func StakeRecordAddress(staker string) (sdk.AccAddress, error) {
	addr, err := sdk.AccAddressFromBech32(staker)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "staker %q: %s", staker, err)
	}
	recordAddr, _, err := derive.FindAddress(types.ModuleName, types.UserSeed, addr)
	if err != nil {
		return nil, err
	}
	return recordAddr, nil
}

// StakeRecordKey returns the primary store key of staker's record
func StakeRecordKey(staker string) ([]byte, error) {
	addr, err := StakeRecordAddress(staker)
	if err != nil {
		return nil, err
	}
	return types.StakeKey(addr), nil
}

// vaultCapability is the signing authority of the vault. It is built per
// operation and handed to the custody module with a single transfer.
func vaultCapability(vault *types.Vault) derive.Capability {
	return derive.NewCapability(types.ModuleName, vault.Bump, types.VaultSeed, []byte(vault.Denom))
}

// VaultBalance returns the token balance held in the vault for denom
func (k *Keeper) VaultBalance(ctx sdk.Context, denom string) (uint64, error) {
	vault := k.GetVault(ctx, denom)
	if vault == nil {
		return 0, errorsmod.Wrapf(types.ErrVaultNotFound, "denom %s", denom)
	}
	acc := k.tokenKeeper.GetAccount(ctx, vault.Address)
	if acc == nil {
		return 0, errorsmod.Wrapf(types.ErrVaultNotFound, "no token account at %s", vault.Address)
	}
	return acc.Amount, nil
}

// activeVault returns the config and the vault it designates
func (k *Keeper) activeVault(ctx sdk.Context) (*types.GlobalConfig, *types.Vault, error) {
	config := k.GetConfig(ctx)
	if config == nil {
		return nil, nil, types.ErrNotInitialized
	}
	vault := k.GetVault(ctx, config.Denom)
	if vault == nil {
		return nil, nil, errorsmod.Wrapf(types.ErrVaultNotFound, "denom %s", config.Denom)
	}
	return config, vault, nil
}
