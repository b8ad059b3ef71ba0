package keeper

import (
	"context"
	"math/bits"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/tokens/types"
)

// Event types
const (
	EventTypeTransfer = "token_transfer"
	EventTypeMint     = "token_mint"
)

// Transfer moves req.Amount between two accounts of the same denom.
// Zero-amount transfers pass every check and leave balances untouched.
func (k *Keeper) Transfer(ctx context.Context, req types.TransferRequest) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	from := k.GetAccount(sdkCtx, req.From)
	if from == nil {
		return errorsmod.Wrapf(types.ErrAccountNotFound, "source %s", req.From)
	}
	to := k.GetAccount(sdkCtx, req.To)
	if to == nil {
		return errorsmod.Wrapf(types.ErrAccountNotFound, "destination %s", req.To)
	}
	if from.Denom != to.Denom {
		return errorsmod.Wrapf(types.ErrDenomMismatch, "%s holds %s, %s holds %s", from.Address, from.Denom, to.Address, to.Denom)
	}
	if err := k.authorize(from, req.Auth); err != nil {
		return err
	}
	if from.Amount < req.Amount {
		return errorsmod.Wrapf(types.ErrInsufficientFunds, "%s has %d, needs %d", from.Address, from.Amount, req.Amount)
	}
	if from.Address == to.Address {
		return nil
	}

	credited, carry := bits.Add64(to.Amount, req.Amount, 0)
	if carry != 0 {
		return errorsmod.Wrapf(types.ErrOverflow, "crediting %s", to.Address)
	}
	from.Amount -= req.Amount
	to.Amount = credited
	k.SetAccount(sdkCtx, from)
	k.SetAccount(sdkCtx, to)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeTransfer,
			sdk.NewAttribute("from", from.Address),
			sdk.NewAttribute("to", to.Address),
			sdk.NewAttribute("denom", from.Denom),
			sdk.NewAttribute("amount", strconv.FormatUint(req.Amount, 10)),
		),
	)

	k.logger.Debug("Token transfer",
		"from", from.Address,
		"to", to.Address,
		"amount", req.Amount,
	)
	return nil
}

func (k *Keeper) authorize(from *types.TokenAccount, auth types.Authorization) error {
	if auth.Capability != nil {
		if !k.derivers[auth.Capability.Module] {
			return errorsmod.Wrapf(types.ErrCapabilityNotPermitted, "module %q", auth.Capability.Module)
		}
		owner, err := sdk.AccAddressFromBech32(from.Owner)
		if err != nil {
			return errorsmod.Wrapf(types.ErrUnauthorized, "owner of %s: %s", from.Address, err)
		}
		if !auth.Capability.Authorizes(owner) {
			return errorsmod.Wrapf(types.ErrUnauthorized, "capability does not derive owner of %s", from.Address)
		}
		return nil
	}
	if auth.Signer == "" || auth.Signer != from.Owner {
		return errorsmod.Wrapf(types.ErrUnauthorized, "signer %q is not owner of %s", auth.Signer, from.Address)
	}
	return nil
}

// Mint credits amount to the account at recipient. Only the mint authority may mint.
func (k *Keeper) Mint(ctx context.Context, authority, recipient string, amount uint64) (*types.TokenAccount, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if authority != k.authority {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the mint authority", authority)
	}
	if amount == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidAmount, "mint amount must be positive")
	}
	acc := k.GetAccount(sdkCtx, recipient)
	if acc == nil {
		return nil, errorsmod.Wrapf(types.ErrAccountNotFound, "recipient %s", recipient)
	}

	balance, carry := bits.Add64(acc.Amount, amount, 0)
	if carry != 0 {
		return nil, errorsmod.Wrapf(types.ErrOverflow, "crediting %s", recipient)
	}
	supply, carry := bits.Add64(k.GetSupply(sdkCtx, acc.Denom), amount, 0)
	if carry != 0 {
		return nil, errorsmod.Wrapf(types.ErrOverflow, "supply of %s", acc.Denom)
	}
	acc.Amount = balance
	k.SetAccount(sdkCtx, acc)
	k.setSupply(sdkCtx, acc.Denom, supply)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeMint,
			sdk.NewAttribute("recipient", recipient),
			sdk.NewAttribute("denom", acc.Denom),
			sdk.NewAttribute("amount", strconv.FormatUint(amount, 10)),
		),
	)

	k.logger.Info("Tokens minted",
		"recipient", recipient,
		"denom", acc.Denom,
		"amount", amount,
	)
	return acc, nil
}
