package types

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

const (
	// BpsDenominator is the basis point scale: 10000 bps == 100%
	BpsDenominator uint64 = 10_000

	// MaxFeeBps is the highest fee a config may carry
	MaxFeeBps = BpsDenominator
)

// SplitFee splits total into the fee taken at bps basis points and the
// remainder paid to the principal. The product total*bps is computed at
// 256-bit width so it cannot overflow; the fee is floored.
func SplitFee(total, bps uint64) (fee, user uint64, err error) {
	wide := math.NewUint(total).Mul(math.NewUint(bps)).Quo(math.NewUint(BpsDenominator))
	if wide.GT(math.NewUint(total)) {
		return 0, 0, errorsmod.Wrapf(ErrArithmeticUnderflow, "fee of %d bps exceeds total %d", bps, total)
	}
	fee = wide.Uint64()
	return fee, total - fee, nil
}

// ValidateFeeBps rejects fees above MaxFeeBps
func ValidateFeeBps(bps uint64) error {
	if bps > MaxFeeBps {
		return errorsmod.Wrapf(ErrInvalidFee, "got %d", bps)
	}
	return nil
}
