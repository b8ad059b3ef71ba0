package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// TokenKeeper is the token custody collaborator
type TokenKeeper interface {
	GetAccount(ctx sdk.Context, address string) *tokenstypes.TokenAccount
	CreateAccount(ctx sdk.Context, address, owner, denom string) (*tokenstypes.TokenAccount, error)
	Transfer(ctx context.Context, req tokenstypes.TransferRequest) error
}

// MetricsRecorder observes committed operations
type MetricsRecorder interface {
	RecordDeposit(denom string, amount, totalStaked uint64)
	RecordWithdrawal(denom string, userAmount, fee uint64)
	RecordFeeUpdate(oldFee, newFee uint64)
	RecordRejection(operation string, err error)
}
