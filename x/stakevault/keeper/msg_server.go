package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface.
// Each handler runs against a cache of the incoming context and writes it
// back only when the operation succeeds, so a failure at any step leaves
// no partial state behind.
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

func (m msgServer) reject(op string, err error) error {
	if m.Keeper.metrics != nil {
		m.Keeper.metrics.RecordRejection(op, err)
	}
	m.Keeper.logger.Debug("Operation rejected", "operation", op, "error", err)
	return err
}

// Initialize handles MsgInitialize
func (m msgServer) Initialize(goCtx context.Context, msg *types.MsgInitialize) (*types.MsgInitializeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, m.reject(types.TypeMsgInitialize, err)
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	config, vault, err := m.Keeper.Initialize(cacheCtx, msg.Payer, msg.Denom, msg.WithdrawFeeBps)
	if err != nil {
		return nil, m.reject(types.TypeMsgInitialize, err)
	}
	write()

	if m.Keeper.metrics != nil {
		m.Keeper.metrics.RecordFeeUpdate(0, config.WithdrawFeeBps)
	}
	return &types.MsgInitializeResponse{Vault: vault.Address, Bump: vault.Bump}, nil
}

// UpdateFee handles MsgUpdateFee
func (m msgServer) UpdateFee(goCtx context.Context, msg *types.MsgUpdateFee) (*types.MsgUpdateFeeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, m.reject(types.TypeMsgUpdateFee, err)
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	oldFee, err := m.Keeper.UpdateFee(cacheCtx, msg.Admin, msg.NewFeeBps)
	if err != nil {
		return nil, m.reject(types.TypeMsgUpdateFee, err)
	}
	write()

	if m.Keeper.metrics != nil {
		m.Keeper.metrics.RecordFeeUpdate(oldFee, msg.NewFeeBps)
	}
	return &types.MsgUpdateFeeResponse{OldFeeBps: oldFee, NewFeeBps: msg.NewFeeBps}, nil
}

// Deposit handles MsgDeposit
func (m msgServer) Deposit(goCtx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, m.reject(types.TypeMsgDeposit, err)
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	record, err := m.Keeper.Deposit(cacheCtx, msg.Staker, msg.TokenAccount, msg.Amount)
	if err != nil {
		return nil, m.reject(types.TypeMsgDeposit, err)
	}
	write()

	if m.Keeper.metrics != nil {
		if config := m.Keeper.GetConfig(ctx); config != nil {
			m.Keeper.metrics.RecordDeposit(config.Denom, msg.Amount, record.Amount)
		}
	}
	return &types.MsgDepositResponse{TotalStaked: record.Amount, DepositTs: record.DepositTs}, nil
}

// Withdraw handles MsgWithdraw
func (m msgServer) Withdraw(goCtx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, m.reject(types.TypeMsgWithdraw, err)
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	result, err := m.Keeper.Withdraw(cacheCtx, msg.Staker, msg.TokenAccount, msg.FeeVault)
	if err != nil {
		return nil, m.reject(types.TypeMsgWithdraw, err)
	}
	write()

	if m.Keeper.metrics != nil {
		if config := m.Keeper.GetConfig(ctx); config != nil {
			m.Keeper.metrics.RecordWithdrawal(config.Denom, result.UserAmount, result.Fee)
		}
	}
	return &types.MsgWithdrawResponse{Amount: result.UserAmount, Fee: result.Fee}, nil
}
