package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/access/types"
)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// Initialize handles MsgInitialize
func (m msgServer) Initialize(goCtx context.Context, msg *types.MsgInitialize) (*types.MsgInitializeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	config, err := m.Keeper.Initialize(sdk.UnwrapSDKContext(goCtx), msg.Signer)
	if err != nil {
		return nil, err
	}
	return &types.MsgInitializeResponse{Admin: config.Admin}, nil
}

// RestrictedFunction handles MsgRestrictedFunction
func (m msgServer) RestrictedFunction(goCtx context.Context, msg *types.MsgRestrictedFunction) (*types.MsgRestrictedFunctionResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.RestrictedFunction(sdk.UnwrapSDKContext(goCtx), msg.Signer); err != nil {
		return nil, err
	}
	return &types.MsgRestrictedFunctionResponse{}, nil
}

// TransferOwnership handles MsgTransferOwnership
func (m msgServer) TransferOwnership(goCtx context.Context, msg *types.MsgTransferOwnership) (*types.MsgTransferOwnershipResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	oldAdmin, err := m.Keeper.TransferOwnership(cacheCtx, msg.Signer, msg.NewAdmin)
	if err != nil {
		return nil, err
	}
	write()
	return &types.MsgTransferOwnershipResponse{OldAdmin: oldAdmin, NewAdmin: msg.NewAdmin}, nil
}
