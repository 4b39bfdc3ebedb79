package position

import (
	"math/big"

	"perpview/internal/token"
)

// PropsLength is the number of flat integers per position slot in the raw
// ledger response.
const PropsLength = 9

// Settings are the caller toggles affecting derivation output.
type Settings struct {
	// ShowPnlAfterFees selects the after-fees delta strings as the
	// primary ones; both variants are always computed.
	ShowPnlAfterFees bool
	// IncludeDeltaInLeverage folds the unrealized delta into the
	// collateral used for the leverage ratio.
	IncludeDeltaInLeverage bool
}

// Position is the fully derived view of one open or queried slot.
// Monetary fields are fixed-point big integers at the 30-decimal USD scale
// except Leverage, which uses the 4-decimal basis-point scale. Fields that
// are nil were not computable for this input combination; that is a result
// absence, never an error.
type Position struct {
	CollateralToken *token.Info
	IndexToken      *token.Info
	IsLong          bool

	Size                  *big.Int
	Collateral            *big.Int
	AveragePrice          *big.Int
	EntryFundingRate      *big.Int
	CumulativeFundingRate *big.Int
	HasRealisedProfit     bool
	RealisedPnl           *big.Int
	LastIncreasedTime     *big.Int
	HasProfit             bool
	Delta                 *big.Int
	MarkPrice             *big.Int

	PositionID  string
	Adapter     string
	Key         string
	AdapterKey  string
	ContractKey string

	// HasFundingFee records whether both funding rates were known;
	// FundingFee defaults to zero either way so downstream arithmetic
	// never touches a nil.
	HasFundingFee      bool
	FundingFee         *big.Int
	CollateralAfterFee *big.Int
	ClosingFee         *big.Int
	PositionFee        *big.Int
	TotalFees          *big.Int

	PendingDelta     *big.Int
	HasLowCollateral bool
	DeltaPercentage  *big.Int

	DeltaStr           string
	DeltaPercentageStr string
	DeltaBeforeFeesStr string

	HasProfitAfterFees          bool
	PendingDeltaAfterFees       *big.Int
	DeltaPercentageAfterFees    *big.Int
	DeltaAfterFeesStr           string
	DeltaAfterFeesPercentageStr string

	NetValue *big.Int

	// Leverage is nil when not computable. A negative value means the
	// net collateral went below zero; display renders it as effectively
	// infinite rather than numeric.
	Leverage    *big.Int
	LeverageStr string
}
