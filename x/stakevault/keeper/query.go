package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// QueryServer serves read-only views of the module state
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServer creates a new QueryServer
func NewQueryServer(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// VaultInfo is a vault together with its current token balance
type VaultInfo struct {
	types.Vault
	Balance     uint64 `json:"balance"`
	TotalStaked uint64 `json:"total_staked"`
}

// Config returns the global config
func (q *QueryServer) Config(ctx context.Context) (*types.GlobalConfig, error) {
	config := q.keeper.GetConfig(sdk.UnwrapSDKContext(ctx))
	if config == nil {
		return nil, types.ErrNotInitialized
	}
	return config, nil
}

// Vault returns the active vault and its balance
func (q *QueryServer) Vault(ctx context.Context) (*VaultInfo, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	_, vault, err := q.keeper.activeVault(sdkCtx)
	if err != nil {
		return nil, err
	}
	balance, err := q.keeper.VaultBalance(sdkCtx, vault.Denom)
	if err != nil {
		return nil, err
	}
	staked, _ := q.keeper.TotalStaked(sdkCtx)
	return &VaultInfo{Vault: *vault, Balance: balance, TotalStaked: staked}, nil
}

// StakeRecord returns the record of staker. A staker that never deposited
// has an empty record.
func (q *QueryServer) StakeRecord(ctx context.Context, staker string) (*types.StakeRecord, error) {
	if _, err := sdk.AccAddressFromBech32(staker); err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "staker %q: %s", staker, err)
	}
	record := q.keeper.GetStakeRecord(sdk.UnwrapSDKContext(ctx), staker)
	if record == nil {
		return &types.StakeRecord{Staker: staker}, nil
	}
	return record, nil
}

// AuditLog returns audit entries starting at sequence from
func (q *QueryServer) AuditLog(ctx context.Context, from uint64, limit int) ([]types.AuditEntry, error) {
	return q.keeper.GetAuditEntries(sdk.UnwrapSDKContext(ctx), from, limit), nil
}
