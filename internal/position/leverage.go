package position

import (
	"math/big"

	"perpview/internal/fixedpoint"
)

// LeverageInput carries the inputs to the leverage projection. A nil (or
// zero) big.Int field is treated as absent; Size/Collateral describe the
// current position and the optional deltas model a pending change.
type LeverageInput struct {
	Size               *big.Int
	SizeDelta          *big.Int
	IncreaseSize       bool
	Collateral         *big.Int
	CollateralDelta    *big.Int
	IncreaseCollateral bool

	EntryFundingRate      *big.Int
	CumulativeFundingRate *big.Int

	HasProfit    bool
	Delta        *big.Int
	IncludeDelta bool
}

// Leverage computes nextSize * BPS / remainingCollateral at the 4-decimal
// basis-point scale. The second return is false whenever the ratio is not
// computable for this input combination: no size, no collateral, a
// decrease that would close or over-close the position, a loss exceeding
// the remaining collateral, or collateral netting out to zero. That is a
// result absence, not an error. A negative result is possible when the
// funding fee exceeds the remaining collateral and is rendered downstream
// as effectively infinite leverage.
func Leverage(in LeverageInput) (*big.Int, bool) {
	if !known(in.Size) && !known(in.SizeDelta) {
		return nil, false
	}
	if !known(in.Collateral) && !known(in.CollateralDelta) {
		return nil, false
	}

	nextSize := big.NewInt(0)
	if known(in.Size) {
		nextSize.Set(in.Size)
	}
	if known(in.SizeDelta) {
		if in.IncreaseSize {
			nextSize.Add(nextSize, in.SizeDelta)
		} else {
			if in.SizeDelta.Cmp(nextSize) >= 0 {
				return nil, false
			}
			nextSize.Sub(nextSize, in.SizeDelta)
		}
	}

	remaining := big.NewInt(0)
	if known(in.Collateral) {
		remaining.Set(in.Collateral)
	}
	if known(in.CollateralDelta) {
		if in.IncreaseCollateral {
			remaining.Add(remaining, in.CollateralDelta)
		} else {
			if in.CollateralDelta.Cmp(remaining) >= 0 {
				return nil, false
			}
			remaining.Sub(remaining, in.CollateralDelta)
		}
	}

	if known(in.Delta) && in.IncludeDelta {
		if in.HasProfit {
			remaining.Add(remaining, in.Delta)
		} else {
			if in.Delta.Cmp(remaining) > 0 {
				return nil, false
			}
			remaining.Sub(remaining, in.Delta)
		}
	}

	if remaining.Sign() == 0 {
		return nil, false
	}

	// A pending size change pays the margin fee out of collateral.
	if known(in.SizeDelta) {
		factor := big.NewInt(fixedpoint.BasisPointsDivisor - fixedpoint.MarginFeeBasisPoints)
		remaining.Mul(remaining, factor)
		remaining.Quo(remaining, fixedpoint.BasisPoints)
	}

	if known(in.EntryFundingRate) && known(in.CumulativeFundingRate) {
		fee := new(big.Int).Sub(in.CumulativeFundingRate, in.EntryFundingRate)
		fee.Mul(fee, in.Size)
		fee.Quo(fee, fixedpoint.FundingPrecision)
		remaining.Sub(remaining, fee)
	}

	if remaining.Sign() == 0 {
		return nil, false
	}

	result := new(big.Int).Mul(nextSize, fixedpoint.BasisPoints)
	return result.Quo(result, remaining), true
}

func known(v *big.Int) bool {
	return v != nil && v.Sign() != 0
}
