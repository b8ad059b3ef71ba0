package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// Withdraw pays out the staker's full balance. The fee at the current rate
// goes to feeVault, which must be owned by the admin; the remainder goes to
// the staker's token account. Both transfers are signed by the vault.
func (k *Keeper) Withdraw(ctx context.Context, staker, tokenAccount, feeVault string) (*types.WithdrawResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	config, vault, err := k.activeVault(sdkCtx)
	if err != nil {
		return nil, err
	}

	// The fee vault is checked before the stake so a foreign fee vault is
	// rejected whatever the staker's balance.
	feeAccount := k.tokenKeeper.GetAccount(sdkCtx, feeVault)
	if feeAccount == nil || feeAccount.Owner != config.Admin {
		return nil, errorsmod.Wrapf(types.ErrInvalidFeeVault, "fee vault %s", feeVault)
	}

	record := k.GetStakeRecord(sdkCtx, staker)
	if record == nil || record.Amount == 0 {
		return nil, types.ErrInvalidWithdraw
	}

	total := record.Amount
	fee, userAmount, err := types.SplitFee(total, config.WithdrawFeeBps)
	if err != nil {
		return nil, err
	}

	capability := vaultCapability(vault)
	if fee > 0 {
		err = k.tokenKeeper.Transfer(sdkCtx, tokenstypes.TransferRequest{
			From:   vault.Address,
			To:     feeVault,
			Amount: fee,
			Auth:   tokenstypes.DelegatedBy(capability),
		})
		if err != nil {
			return nil, err
		}
	}
	err = k.tokenKeeper.Transfer(sdkCtx, tokenstypes.TransferRequest{
		From:   vault.Address,
		To:     tokenAccount,
		Amount: userAmount,
		Auth:   tokenstypes.DelegatedBy(capability),
	})
	if err != nil {
		return nil, err
	}

	record.Amount = 0
	if err := k.SetStakeRecord(sdkCtx, record); err != nil {
		return nil, err
	}

	if err := k.appendAudit(sdkCtx, types.EventTypeTokensWithdrawn, types.TokensWithdrawn{
		Staker:      staker,
		Amount:      userAmount,
		Fee:         fee,
		TotalStaked: 0,
	}); err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTokensWithdrawn,
			sdk.NewAttribute(types.AttributeKeyStaker, staker),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(userAmount, 10)),
			sdk.NewAttribute(types.AttributeKeyFee, strconv.FormatUint(fee, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalStaked, "0"),
		),
	)

	k.logger.Info("Tokens withdrawn",
		"staker", staker,
		"amount", userAmount,
		"fee", fee,
		"fee_bps", config.WithdrawFeeBps,
	)

	return &types.WithdrawResult{
		Staker:     staker,
		Total:      total,
		Fee:        fee,
		UserAmount: userAmount,
	}, nil
}
