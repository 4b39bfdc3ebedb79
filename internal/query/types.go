package query

import (
	"math/big"

	"perpview/internal/position"
	"perpview/internal/token"
)

// TokenInfoResponse is the transport view of a derived token record. All
// monetary fields are decimal strings of the underlying scaled integers so
// no precision is lost at the JSON boundary; an absent field was not
// computable or not supplied upstream and is omitted rather than zeroed.
type TokenInfoResponse struct {
	Symbol    string `json:"symbol"`
	Address   string `json:"address"`
	Decimals  int    `json:"decimals"`
	IsStable  bool   `json:"isStable,omitempty"`
	IsWrapped bool   `json:"isWrapped,omitempty"`

	Balance string `json:"balance,omitempty"`

	PoolAmount       string `json:"poolAmount,omitempty"`
	ReservedAmount   string `json:"reservedAmount,omitempty"`
	AvailableAmount  string `json:"availableAmount,omitempty"`
	UsdgAmount       string `json:"usdgAmount,omitempty"`
	RedemptionAmount string `json:"redemptionAmount,omitempty"`
	Weight           string `json:"weight,omitempty"`
	BufferAmount     string `json:"bufferAmount,omitempty"`
	MaxUsdgAmount    string `json:"maxUsdgAmount,omitempty"`

	GlobalShortSize    string `json:"globalShortSize,omitempty"`
	MaxGlobalShortSize string `json:"maxGlobalShortSize,omitempty"`
	MaxGlobalLongSize  string `json:"maxGlobalLongSize,omitempty"`

	MinPrice         string `json:"minPrice,omitempty"`
	MaxPrice         string `json:"maxPrice,omitempty"`
	ContractMinPrice string `json:"contractMinPrice,omitempty"`
	ContractMaxPrice string `json:"contractMaxPrice,omitempty"`
	GuaranteedUsd    string `json:"guaranteedUsd,omitempty"`
	MaxPrimaryPrice  string `json:"maxPrimaryPrice,omitempty"`
	MinPrimaryPrice  string `json:"minPrimaryPrice,omitempty"`
	Spread           string `json:"spread,omitempty"`

	FundingRate           string `json:"fundingRate,omitempty"`
	CumulativeFundingRate string `json:"cumulativeFundingRate,omitempty"`

	HasMaxAvailableShort bool   `json:"hasMaxAvailableShort"`
	MaxAvailableShort    string `json:"maxAvailableShort,omitempty"`
	AvailableUsd         string `json:"availableUsd,omitempty"`
	HasMaxAvailableLong  bool   `json:"hasMaxAvailableLong"`
	MaxAvailableLong     string `json:"maxAvailableLong,omitempty"`
	MaxLongCapacity      string `json:"maxLongCapacity,omitempty"`
	ManagedUsd           string `json:"managedUsd,omitempty"`
	ManagedAmount        string `json:"managedAmount,omitempty"`
}

// PositionResponse is the transport view of a derived position.
type PositionResponse struct {
	CollateralToken *TokenInfoResponse `json:"collateralToken"`
	IndexToken      *TokenInfoResponse `json:"indexToken"`
	IsLong          bool               `json:"isLong"`

	Size                  string `json:"size"`
	Collateral            string `json:"collateral"`
	AveragePrice          string `json:"averagePrice"`
	EntryFundingRate      string `json:"entryFundingRate"`
	CumulativeFundingRate string `json:"cumulativeFundingRate,omitempty"`
	HasRealisedProfit     bool   `json:"hasRealisedProfit"`
	RealisedPnl           string `json:"realisedPnl"`
	LastIncreasedTime     string `json:"lastIncreasedTime"`
	HasProfit             bool   `json:"hasProfit"`
	Delta                 string `json:"delta"`
	MarkPrice             string `json:"markPrice,omitempty"`

	PositionID  string `json:"positionId,omitempty"`
	Adapter     string `json:"adapter,omitempty"`
	Key         string `json:"key"`
	AdapterKey  string `json:"adapterKey"`
	ContractKey string `json:"contractKey"`

	FundingFee         string `json:"fundingFee"`
	CollateralAfterFee string `json:"collateralAfterFee"`
	ClosingFee         string `json:"closingFee"`
	PositionFee        string `json:"positionFee"`
	TotalFees          string `json:"totalFees"`

	PendingDelta     string `json:"pendingDelta,omitempty"`
	HasLowCollateral bool   `json:"hasLowCollateral"`
	DeltaPercentage  string `json:"deltaPercentage,omitempty"`

	DeltaStr           string `json:"deltaStr,omitempty"`
	DeltaPercentageStr string `json:"deltaPercentageStr,omitempty"`
	DeltaBeforeFeesStr string `json:"deltaBeforeFeesStr,omitempty"`

	HasProfitAfterFees          bool   `json:"hasProfitAfterFees"`
	PendingDeltaAfterFees       string `json:"pendingDeltaAfterFees,omitempty"`
	DeltaPercentageAfterFees    string `json:"deltaPercentageAfterFees,omitempty"`
	DeltaAfterFeesStr           string `json:"deltaAfterFeesStr,omitempty"`
	DeltaAfterFeesPercentageStr string `json:"deltaAfterFeesPercentageStr,omitempty"`

	NetValue string `json:"netValue,omitempty"`

	Leverage    string `json:"leverage,omitempty"`
	LeverageStr string `json:"leverageStr,omitempty"`
}

// PositionsPayload is the GET /positions response body.
type PositionsPayload struct {
	Positions []*PositionResponse `json:"positions"`
}

// TokenInfoPayload is the GET /tokeninfo response body, keyed by token
// address.
type TokenInfoPayload map[string]*TokenInfoResponse

func newTokenInfoResponse(info *token.Info) *TokenInfoResponse {
	return &TokenInfoResponse{
		Symbol:    info.Symbol,
		Address:   info.Address,
		Decimals:  info.Decimals,
		IsStable:  info.IsStable,
		IsWrapped: info.IsWrapped,

		Balance: bigString(info.Balance),

		PoolAmount:       bigString(info.PoolAmount),
		ReservedAmount:   bigString(info.ReservedAmount),
		AvailableAmount:  bigString(info.AvailableAmount),
		UsdgAmount:       bigString(info.UsdgAmount),
		RedemptionAmount: bigString(info.RedemptionAmount),
		Weight:           bigString(info.Weight),
		BufferAmount:     bigString(info.BufferAmount),
		MaxUsdgAmount:    bigString(info.MaxUsdgAmount),

		GlobalShortSize:    bigString(info.GlobalShortSize),
		MaxGlobalShortSize: bigString(info.MaxGlobalShortSize),
		MaxGlobalLongSize:  bigString(info.MaxGlobalLongSize),

		MinPrice:         bigString(info.MinPrice),
		MaxPrice:         bigString(info.MaxPrice),
		ContractMinPrice: bigString(info.ContractMinPrice),
		ContractMaxPrice: bigString(info.ContractMaxPrice),
		GuaranteedUsd:    bigString(info.GuaranteedUsd),
		MaxPrimaryPrice:  bigString(info.MaxPrimaryPrice),
		MinPrimaryPrice:  bigString(info.MinPrimaryPrice),
		Spread:           bigString(info.Spread),

		FundingRate:           bigString(info.FundingRate),
		CumulativeFundingRate: bigString(info.CumulativeFundingRate),

		HasMaxAvailableShort: info.HasMaxAvailableShort,
		MaxAvailableShort:    bigString(info.MaxAvailableShort),
		AvailableUsd:         bigString(info.AvailableUsd),
		HasMaxAvailableLong:  info.HasMaxAvailableLong,
		MaxAvailableLong:     bigString(info.MaxAvailableLong),
		MaxLongCapacity:      bigString(info.MaxLongCapacity),
		ManagedUsd:           bigString(info.ManagedUsd),
		ManagedAmount:        bigString(info.ManagedAmount),
	}
}

func newPositionResponse(p *position.Position) *PositionResponse {
	return &PositionResponse{
		CollateralToken: newTokenInfoResponse(p.CollateralToken),
		IndexToken:      newTokenInfoResponse(p.IndexToken),
		IsLong:          p.IsLong,

		Size:                  bigString(p.Size),
		Collateral:            bigString(p.Collateral),
		AveragePrice:          bigString(p.AveragePrice),
		EntryFundingRate:      bigString(p.EntryFundingRate),
		CumulativeFundingRate: bigString(p.CumulativeFundingRate),
		HasRealisedProfit:     p.HasRealisedProfit,
		RealisedPnl:           bigString(p.RealisedPnl),
		LastIncreasedTime:     bigString(p.LastIncreasedTime),
		HasProfit:             p.HasProfit,
		Delta:                 bigString(p.Delta),
		MarkPrice:             bigString(p.MarkPrice),

		PositionID:  p.PositionID,
		Adapter:     p.Adapter,
		Key:         p.Key,
		AdapterKey:  p.AdapterKey,
		ContractKey: p.ContractKey,

		FundingFee:         bigString(p.FundingFee),
		CollateralAfterFee: bigString(p.CollateralAfterFee),
		ClosingFee:         bigString(p.ClosingFee),
		PositionFee:        bigString(p.PositionFee),
		TotalFees:          bigString(p.TotalFees),

		PendingDelta:     bigString(p.PendingDelta),
		HasLowCollateral: p.HasLowCollateral,
		DeltaPercentage:  bigString(p.DeltaPercentage),

		DeltaStr:           p.DeltaStr,
		DeltaPercentageStr: p.DeltaPercentageStr,
		DeltaBeforeFeesStr: p.DeltaBeforeFeesStr,

		HasProfitAfterFees:          p.HasProfitAfterFees,
		PendingDeltaAfterFees:       bigString(p.PendingDeltaAfterFees),
		DeltaPercentageAfterFees:    bigString(p.DeltaPercentageAfterFees),
		DeltaAfterFeesStr:           p.DeltaAfterFeesStr,
		DeltaAfterFeesPercentageStr: p.DeltaAfterFeesPercentageStr,

		NetValue: bigString(p.NetValue),

		Leverage:    bigString(p.Leverage),
		LeverageStr: p.LeverageStr,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
