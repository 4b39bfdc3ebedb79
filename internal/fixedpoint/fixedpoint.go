package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Protocol-wide fixed-point scales. USD amounts carry 30 decimals,
// ratios are expressed in basis points of 1/10000, and funding rates
// accrue at a precision of 1e6.
const (
	USDDecimals            = 30
	BasisPointsDivisor     = 10_000
	MarginFeeBasisPoints   = 10
	FundingRatePrecision   = 1_000_000
	LowCollateralSizeRatio = 50
)

var (
	// OneUSD is 1.0 at the 30-decimal USD scale.
	OneUSD = Expand(1, USDDecimals)

	// BasisPoints and FundingPrecision are the divisor constants as big
	// integers, shared so callers never rebuild them per operation.
	BasisPoints      = big.NewInt(BasisPointsDivisor)
	MarginFeeBps     = big.NewInt(MarginFeeBasisPoints)
	FundingPrecision = big.NewInt(FundingRatePrecision)

	// DefaultMaxUsdgAmount substitutes for a vault-reported max-USDG of
	// zero, which the protocol uses to mean "no explicit cap configured".
	DefaultMaxUsdgAmount = Expand(200_000_000, 18)
)

// Expand returns value * 10^decimals as an exact integer.
func Expand(value int64, decimals int) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return exp.Mul(exp, big.NewInt(value))
}

// Format renders a scaled integer as a decimal string with displayDecimals
// fractional digits. The fractional tail is truncated unless roundUp is set,
// in which case it rounds half away from zero. All arithmetic stays in
// arbitrary precision; the value never passes through a float.
func Format(value *big.Int, decimals, displayDecimals int32, roundUp bool) string {
	if value == nil {
		return ""
	}
	d := decimal.NewFromBigInt(value, -decimals)
	if roundUp {
		d = d.Round(displayDecimals)
	} else {
		d = d.Truncate(displayDecimals)
	}
	return d.StringFixed(displayDecimals)
}

// FormatGrouped is Format with thousands separators in the integer part,
// used for human-facing display strings.
func FormatGrouped(value *big.Int, decimals, displayDecimals int32, roundUp bool) string {
	s := Format(value, decimals, displayDecimals, roundUp)
	if s == "" {
		return s
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// Parse converts a decimal string back to a scaled integer. It is the exact
// inverse of Format at full precision: parsing a string produced with
// displayDecimals == decimals reproduces the original integer bit-for-bit.
func Parse(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q carries more than %d decimals", s, decimals)
	}
	return shifted.BigInt(), nil
}
