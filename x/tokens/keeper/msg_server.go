package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/tokens/types"
)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// CreateAccount handles MsgCreateAccount
func (m msgServer) CreateAccount(goCtx context.Context, msg *types.MsgCreateAccount) (*types.MsgCreateAccountResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	acc, err := m.Keeper.CreateAssociatedAccount(ctx, msg.Owner, msg.Denom)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreateAccountResponse{Address: acc.Address}, nil
}

// Mint handles MsgMint
func (m msgServer) Mint(goCtx context.Context, msg *types.MsgMint) (*types.MsgMintResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	acc, err := m.Keeper.Mint(cacheCtx, msg.Authority, msg.Recipient, msg.Amount)
	if err != nil {
		return nil, err
	}
	write()
	return &types.MsgMintResponse{NewBalance: acc.Amount}, nil
}

// Transfer handles MsgTransfer. The sender signs for the source account.
func (m msgServer) Transfer(goCtx context.Context, msg *types.MsgTransfer) (*types.MsgTransferResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	cacheCtx, write := ctx.CacheContext()
	err := m.Keeper.Transfer(cacheCtx, types.TransferRequest{
		From:   msg.From,
		To:     msg.To,
		Amount: msg.Amount,
		Auth:   types.SignedBy(msg.Sender),
	})
	if err != nil {
		return nil, err
	}
	write()
	return &types.MsgTransferResponse{}, nil
}
