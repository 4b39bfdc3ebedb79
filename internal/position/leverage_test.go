package position_test

import (
	"math/big"
	"testing"

	"perpview/internal/fixedpoint"
	"perpview/internal/position"
)

func usd(v int64) *big.Int {
	return fixedpoint.Expand(v, 30)
}

// ============================================================================
// Test: leverage projection, computable cases
// ============================================================================

func TestLeverage_Plain(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:       usd(100),
		Collateral: usd(10),
	})
	if !ok {
		t.Fatal("expected leverage to be computable")
	}
	// 100/10 = 10x at the 4-decimal basis-point scale.
	if want := big.NewInt(100_000); got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLeverage_IncludesProfitDelta(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:         usd(100),
		Collateral:   usd(10),
		HasProfit:    true,
		Delta:        usd(10),
		IncludeDelta: true,
	})
	if !ok {
		t.Fatal("expected leverage to be computable")
	}
	if want := big.NewInt(50_000); got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLeverage_SizeIncreasePaysMarginFee(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:         usd(100),
		SizeDelta:    usd(100),
		IncreaseSize: true,
		Collateral:   usd(10),
	})
	if !ok {
		t.Fatal("expected leverage to be computable")
	}
	// Next size 200, collateral shrunk by the 10bps margin fee to 9.99:
	// 200 * 10000 / 9.99 truncates to 200200.
	if want := big.NewInt(200_200); got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLeverage_FundingFeeReducesCollateral(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:                  usd(100),
		Collateral:            usd(10),
		EntryFundingRate:      big.NewInt(1000),
		CumulativeFundingRate: big.NewInt(5000),
	})
	if !ok {
		t.Fatal("expected leverage to be computable")
	}
	// Accrued funding 100e30*4000/1e6 = 4e29; remaining collateral 9.6e30.
	if want := big.NewInt(104_166); got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLeverage_NegativeWhenFundingExceedsCollateral(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:                  usd(100),
		Collateral:            fixedpoint.Expand(1, 29),
		EntryFundingRate:      big.NewInt(1),
		CumulativeFundingRate: big.NewInt(10_000),
	})
	if !ok {
		t.Fatal("expected leverage to be computable")
	}
	if got.Sign() >= 0 {
		t.Errorf("got %s, want negative", got)
	}
}

// ============================================================================
// Test: leverage projection, not-computable cases
// ============================================================================

func TestLeverage_NotComputable(t *testing.T) {
	cases := []struct {
		name string
		in   position.LeverageInput
	}{
		{
			name: "no size and no size delta",
			in:   position.LeverageInput{Collateral: usd(10)},
		},
		{
			name: "no collateral and no collateral delta",
			in:   position.LeverageInput{Size: usd(100)},
		},
		{
			name: "size decrease closes the position",
			in: position.LeverageInput{
				Size:       usd(100),
				SizeDelta:  usd(100),
				Collateral: usd(10),
			},
		},
		{
			name: "size decrease over-closes the position",
			in: position.LeverageInput{
				Size:       usd(100),
				SizeDelta:  usd(150),
				Collateral: usd(10),
			},
		},
		{
			name: "collateral withdrawal drains the position",
			in: position.LeverageInput{
				Size:            usd(100),
				Collateral:      usd(10),
				CollateralDelta: usd(10),
			},
		},
		{
			name: "loss exceeds remaining collateral",
			in: position.LeverageInput{
				Size:         usd(100),
				Collateral:   usd(10),
				Delta:        usd(11),
				IncludeDelta: true,
			},
		},
		{
			name: "loss consumes collateral exactly",
			in: position.LeverageInput{
				Size:         usd(100),
				Collateral:   usd(10),
				Delta:        usd(10),
				IncludeDelta: true,
			},
		},
		{
			name: "zero values treated as absent",
			in: position.LeverageInput{
				Size:       big.NewInt(0),
				Collateral: usd(10),
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got, ok := position.Leverage(c.in); ok {
				t.Errorf("got %s, want not computable", got)
			}
		})
	}
}

func TestLeverage_LossIgnoredWithoutIncludeDelta(t *testing.T) {
	got, ok := position.Leverage(position.LeverageInput{
		Size:       usd(100),
		Collateral: usd(10),
		Delta:      usd(11),
	})
	if !ok {
		t.Fatal("expected leverage to be computable when delta is excluded")
	}
	if want := big.NewInt(100_000); got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}
