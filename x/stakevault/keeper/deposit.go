package keeper

import (
	"context"
	"math/bits"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// Deposit moves amount from the staker's token account into the vault and
// credits the staker's record, creating it on first use.
func (k *Keeper) Deposit(ctx context.Context, staker, tokenAccount string, amount uint64) (*types.StakeRecord, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if amount == 0 {
		return nil, types.ErrInvalidAmount
	}
	_, vault, err := k.activeVault(sdkCtx)
	if err != nil {
		return nil, err
	}

	record := k.GetStakeRecord(sdkCtx, staker)
	if record == nil {
		if _, err := StakeRecordAddress(staker); err != nil {
			return nil, err
		}
		record = &types.StakeRecord{Staker: staker}
	}

	total, carry := bits.Add64(record.Amount, amount, 0)
	if carry != 0 {
		return nil, errorsmod.Wrapf(types.ErrArithmeticOverflow, "staker %s", staker)
	}

	err = k.tokenKeeper.Transfer(sdkCtx, tokenstypes.TransferRequest{
		From:   tokenAccount,
		To:     vault.Address,
		Amount: amount,
		Auth:   tokenstypes.SignedBy(staker),
	})
	if err != nil {
		return nil, err
	}

	record.Amount = total
	record.DepositTs = sdkCtx.BlockTime().Unix()
	if err := k.SetStakeRecord(sdkCtx, record); err != nil {
		return nil, err
	}

	if err := k.appendAudit(sdkCtx, types.EventTypeTokensStaked, types.TokensStaked{
		Staker:      staker,
		Amount:      amount,
		TotalStaked: record.Amount,
	}); err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTokensStaked,
			sdk.NewAttribute(types.AttributeKeyStaker, staker),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(amount, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalStaked, strconv.FormatUint(record.Amount, 10)),
		),
	)

	k.logger.Info("Tokens staked",
		"staker", staker,
		"amount", amount,
		"total_staked", record.Amount,
	)

	return record, nil
}
