package position

import (
	"math/big"

	"perpview/internal/fixedpoint"
)

// DeltaStrings renders the unrealized delta and its percentage with a sign
// prefix reflecting profit or loss. The magnitudes are always positive
// integers; the prefix alone carries the direction.
func DeltaStrings(delta, deltaPercentage *big.Int, hasProfit bool) (deltaStr, deltaPercentageStr string) {
	if delta != nil && delta.Sign() > 0 {
		if hasProfit {
			deltaStr, deltaPercentageStr = "+", "+"
		} else {
			deltaStr, deltaPercentageStr = "-", "-"
		}
	}
	deltaStr += "$" + fixedpoint.FormatGrouped(delta, fixedpoint.USDDecimals, 2, false)
	deltaPercentageStr += fixedpoint.Format(deltaPercentage, 2, 2, false) + "%"
	return deltaStr, deltaPercentageStr
}

// LeverageString renders a basis-point-scaled leverage ratio. Absent or
// zero leverage renders empty; a negative ratio means the collateral was
// consumed and is shown as effectively infinite.
func LeverageString(leverage *big.Int) string {
	if leverage == nil || leverage.Sign() == 0 {
		return ""
	}
	if leverage.Sign() < 0 {
		return "> 100x"
	}
	return fixedpoint.FormatGrouped(leverage, 4, 2, false) + "x"
}
