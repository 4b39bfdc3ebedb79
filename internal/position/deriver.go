package position

import (
	"fmt"
	"math/big"

	"perpview/internal/fixedpoint"
	"perpview/internal/token"
)

var bigOne = big.NewInt(1)

// rawSlot is one position slot decoded out of the flat ledger array. The
// wire shape stays a flat sequence of integers; decoding happens exactly
// once per slot so the rest of the derivation works on named fields.
type rawSlot struct {
	size              *big.Int
	collateral        *big.Int
	averagePrice      *big.Int
	entryFundingRate  *big.Int
	hasRealisedProfit bool
	realisedPnl       *big.Int
	lastIncreasedTime *big.Int
	hasProfit         bool
	delta             *big.Int
}

func decodeSlot(raw []*big.Int) rawSlot {
	return rawSlot{
		size:              raw[0],
		collateral:        raw[1],
		averagePrice:      raw[2],
		entryFundingRate:  raw[3],
		hasRealisedProfit: raw[4].Cmp(bigOne) == 0,
		realisedPnl:       raw[5],
		lastIncreasedTime: raw[6],
		hasProfit:         raw[7].Cmp(bigOne) == 0,
		delta:             raw[8],
	}
}

// Deriver turns raw position arrays into fully annotated Position records.
// It holds only configuration and allocates fresh output per call.
type Deriver struct {
	nativeAddr string
}

func NewDeriver(nativeAddr string) *Deriver {
	return &Deriver{nativeAddr: nativeAddr}
}

// Derive decodes and annotates every slot of the query. raw must hold
// exactly PropsLength integers per query slot; ids and adapters, when
// present, align with the query by index. The returned slice preserves
// query order and the map keys each position by its adapter-qualified key.
func (d *Deriver) Derive(
	raw []*big.Int,
	q Query,
	infos map[string]*token.Info,
	account string,
	ids, adapters []string,
	settings Settings,
) ([]*Position, map[string]*Position, error) {
	if len(raw) != PropsLength*q.Len() {
		return nil, nil, fmt.Errorf("position data length %d, want %d", len(raw), PropsLength*q.Len())
	}
	if ids != nil && len(ids) != q.Len() {
		return nil, nil, fmt.Errorf("position ids length %d, want %d", len(ids), q.Len())
	}
	if adapters != nil && len(adapters) != q.Len() {
		return nil, nil, fmt.Errorf("position adapters length %d, want %d", len(adapters), q.Len())
	}

	positions := make([]*Position, 0, q.Len())
	byAdapterKey := make(map[string]*Position, q.Len())

	for i := 0; i < q.Len(); i++ {
		collateralAddr := q.CollateralTokens[i]
		indexAddr := q.IndexTokens[i]
		isLong := q.IsLong[i]

		collateralToken := token.Lookup(infos, collateralAddr, d.nativeAddr)
		if collateralToken == nil {
			return nil, nil, fmt.Errorf("no token info for collateral %s", collateralAddr)
		}
		indexToken := token.Lookup(infos, indexAddr, d.nativeAddr)
		if indexToken == nil {
			return nil, nil, fmt.Errorf("no token info for index %s", indexAddr)
		}

		p, err := d.deriveOne(
			decodeSlot(raw[i*PropsLength:(i+1)*PropsLength]),
			collateralToken, indexToken,
			account, collateralAddr, indexAddr, isLong,
			at(ids, i), at(adapters, i),
			settings,
		)
		if err != nil {
			return nil, nil, err
		}

		positions = append(positions, p)
		byAdapterKey[p.AdapterKey] = p
	}

	return positions, byAdapterKey, nil
}

func (d *Deriver) deriveOne(
	slot rawSlot,
	collateralToken, indexToken *token.Info,
	account, collateralAddr, indexAddr string,
	isLong bool,
	positionID, adapter string,
	settings Settings,
) (*Position, error) {
	contractKey, err := ContractKey(account, collateralAddr, indexAddr, isLong)
	if err != nil {
		return nil, err
	}

	p := &Position{
		CollateralToken:       collateralToken,
		IndexToken:            indexToken,
		IsLong:                isLong,
		Size:                  slot.size,
		Collateral:            slot.collateral,
		AveragePrice:          slot.averagePrice,
		EntryFundingRate:      slot.entryFundingRate,
		CumulativeFundingRate: collateralToken.CumulativeFundingRate,
		HasRealisedProfit:     slot.hasRealisedProfit,
		RealisedPnl:           slot.realisedPnl,
		LastIncreasedTime:     slot.lastIncreasedTime,
		HasProfit:             slot.hasProfit,
		Delta:                 slot.delta,
		PositionID:            positionID,
		Adapter:               adapter,
		Key:                   Key(account, collateralAddr, indexAddr, isLong, d.nativeAddr),
		AdapterKey:            KeyWithAdapter(account, collateralAddr, indexAddr, adapter, isLong, d.nativeAddr),
		ContractKey:           contractKey,
	}

	if isLong {
		p.MarkPrice = indexToken.MinPrice
	} else {
		p.MarkPrice = indexToken.MaxPrice
	}

	fee, hasFee := fundingFee(p.Size, p.EntryFundingRate, p.CumulativeFundingRate)
	p.HasFundingFee = hasFee
	p.FundingFee = big.NewInt(0)
	if hasFee {
		p.FundingFee = fee
	}

	p.CollateralAfterFee = p.Collateral
	if p.FundingFee.Sign() != 0 {
		p.CollateralAfterFee = new(big.Int).Sub(p.Collateral, p.FundingFee)
	}

	p.ClosingFee = new(big.Int).Mul(p.Size, fixedpoint.MarginFeeBps)
	p.ClosingFee.Quo(p.ClosingFee, fixedpoint.BasisPoints)
	p.PositionFee = new(big.Int).Mul(p.Size, fixedpoint.MarginFeeBps)
	p.PositionFee.Mul(p.PositionFee, big.NewInt(2))
	p.PositionFee.Quo(p.PositionFee, fixedpoint.BasisPoints)
	p.TotalFees = p.PositionFee
	if p.FundingFee.Sign() != 0 {
		p.TotalFees = new(big.Int).Add(p.PositionFee, p.FundingFee)
	}

	p.PendingDelta = p.Delta

	if p.Collateral.Sign() > 0 {
		d.deriveOpen(p, settings)
	}

	lev, ok := Leverage(LeverageInput{
		Size:                  p.Size,
		Collateral:            p.Collateral,
		EntryFundingRate:      p.EntryFundingRate,
		CumulativeFundingRate: p.CumulativeFundingRate,
		HasProfit:             p.HasProfit,
		Delta:                 p.Delta,
		IncludeDelta:          settings.IncludeDeltaInLeverage,
	})
	if ok {
		p.Leverage = lev
	}
	p.LeverageStr = LeverageString(p.Leverage)

	return p, nil
}

// deriveOpen fills the P&L, fee-netting and net-value fields that only
// mean something for a slot with positive collateral.
func (d *Deriver) deriveOpen(p *Position, settings Settings) {
	// Collateral netting to exactly zero after fees makes the size ratio
	// undefined; that degenerate case counts as low collateral too.
	switch p.CollateralAfterFee.Sign() {
	case -1, 0:
		p.HasLowCollateral = true
	default:
		ratio := new(big.Int).Quo(p.Size, new(big.Int).Abs(p.CollateralAfterFee))
		p.HasLowCollateral = ratio.Cmp(big.NewInt(fixedpoint.LowCollateralSizeRatio)) > 0
	}

	// Recompute the delta from the live mark price when both prices are
	// known, overriding the raw delta/hasProfit pair from the ledger.
	if known(p.AveragePrice) && known(p.MarkPrice) {
		priceDelta := new(big.Int).Sub(p.AveragePrice, p.MarkPrice)
		priceDelta.Abs(priceDelta)
		p.PendingDelta = new(big.Int).Mul(p.Size, priceDelta)
		p.PendingDelta.Quo(p.PendingDelta, p.AveragePrice)
		p.Delta = p.PendingDelta

		if p.IsLong {
			p.HasProfit = p.MarkPrice.Cmp(p.AveragePrice) >= 0
		} else {
			p.HasProfit = p.MarkPrice.Cmp(p.AveragePrice) <= 0
		}
	}

	p.DeltaPercentage = new(big.Int).Mul(p.PendingDelta, fixedpoint.BasisPoints)
	p.DeltaPercentage.Quo(p.DeltaPercentage, p.Collateral)

	p.DeltaStr, p.DeltaPercentageStr = DeltaStrings(p.PendingDelta, p.DeltaPercentage, p.HasProfit)
	p.DeltaBeforeFeesStr = p.DeltaStr

	// Net the accumulated fees into the delta. A profit smaller than the
	// fee load flips to a loss of the difference.
	if p.HasProfit {
		if p.PendingDelta.Cmp(p.TotalFees) > 0 {
			p.HasProfitAfterFees = true
			p.PendingDeltaAfterFees = new(big.Int).Sub(p.PendingDelta, p.TotalFees)
		} else {
			p.HasProfitAfterFees = false
			p.PendingDeltaAfterFees = new(big.Int).Sub(p.TotalFees, p.PendingDelta)
		}
	} else {
		p.HasProfitAfterFees = false
		p.PendingDeltaAfterFees = new(big.Int).Add(p.PendingDelta, p.TotalFees)
	}

	// The percentage-after-fees expression mirrors the protocol reference
	// implementation verbatim, including its mixing of the basis-point
	// divisor and the raw closing fee in one factor.
	factor := new(big.Int).Quo(fixedpoint.BasisPoints, p.Collateral)
	factor.Add(factor, p.ClosingFee)
	p.DeltaPercentageAfterFees = new(big.Int).Mul(p.PendingDeltaAfterFees, factor)

	p.DeltaAfterFeesStr, p.DeltaAfterFeesPercentageStr = DeltaStrings(
		p.PendingDeltaAfterFees, p.DeltaPercentageAfterFees, p.HasProfitAfterFees)

	if settings.ShowPnlAfterFees {
		p.DeltaStr = p.DeltaAfterFeesStr
		p.DeltaPercentageStr = p.DeltaAfterFeesPercentageStr
	}

	netValue := new(big.Int)
	if p.HasProfit {
		netValue.Add(p.Collateral, p.PendingDelta)
	} else {
		netValue.Sub(p.Collateral, p.PendingDelta)
	}
	if p.FundingFee.Sign() != 0 {
		netValue.Sub(netValue, p.FundingFee)
		netValue.Sub(netValue, p.ClosingFee)
	}
	p.NetValue = netValue
}

// fundingFee accrues size * (cumulative - entry) / precision, the fee owed
// since the position's funding entry point. Both rates must be known and
// nonzero; otherwise the fee is not computable. The entry rate is
// subtracted after the size multiply, matching the protocol's accounting
// exactly.
func fundingFee(size, entryRate, cumulativeRate *big.Int) (*big.Int, bool) {
	if !known(entryRate) || !known(cumulativeRate) {
		return nil, false
	}
	fee := new(big.Int).Mul(size, cumulativeRate)
	fee.Sub(fee, entryRate)
	return fee.Quo(fee, fixedpoint.FundingPrecision), true
}

func at(s []string, i int) string {
	if s == nil {
		return ""
	}
	return s[i]
}
