package token

import (
	"fmt"
	"math/big"

	"perpview/internal/fixedpoint"
)

// Field counts of the flat arrays the vault reader returns, per token.
const (
	VaultPropsLength       = 15
	FundingRatePropsLength = 2
)

// Aggregator turns static token records plus the flat vault and funding
// arrays into a fully derived Info map. It holds only configuration and is
// safe for concurrent use; every Derive call allocates a fresh map.
type Aggregator struct {
	usdgAddress string
}

func NewAggregator(usdgAddress string) *Aggregator {
	return &Aggregator{usdgAddress: usdgAddress}
}

// Derive builds the per-request token map. balances, vaultInfo and
// fundingRates may each be nil; when present they must align with tokens
// by index (balances 1 per token, vaultInfo 15 per token, fundingRates 2
// per token) or the whole derivation is rejected.
//
// The build runs in two phases: a provisional map carrying balances and
// the synthetic-stable price pin, then a final pass that unpacks vault
// state and reads balances back out of the provisional map. The final map
// is freshly allocated and never mutated after return.
func (a *Aggregator) Derive(tokens []Token, balances, vaultInfo, fundingRates []*big.Int) (map[string]*Info, error) {
	if balances != nil && len(balances) != len(tokens) {
		return nil, fmt.Errorf("token balances length %d, want %d", len(balances), len(tokens))
	}
	if vaultInfo != nil && len(vaultInfo) != VaultPropsLength*len(tokens) {
		return nil, fmt.Errorf("vault info length %d, want %d", len(vaultInfo), VaultPropsLength*len(tokens))
	}
	if fundingRates != nil && len(fundingRates) != FundingRatePropsLength*len(tokens) {
		return nil, fmt.Errorf("funding rates length %d, want %d", len(fundingRates), FundingRatePropsLength*len(tokens))
	}

	provisional := make(map[string]*Info, len(tokens))
	for i, t := range tokens {
		info := &Info{Token: t}
		if balances != nil {
			info.Balance = balances[i]
		}
		if t.Address == a.usdgAddress {
			info.MinPrice = fixedpoint.OneUSD
			info.MaxPrice = fixedpoint.OneUSD
		}
		provisional[t.Address] = info
	}

	infos := make(map[string]*Info, len(tokens))
	for i, t := range tokens {
		info := &Info{Token: t}

		if vaultInfo != nil {
			a.unpackVault(info, vaultInfo[i*VaultPropsLength:(i+1)*VaultPropsLength])
		}
		if fundingRates != nil {
			info.FundingRate = fundingRates[i*FundingRatePropsLength]
			info.CumulativeFundingRate = fundingRates[i*FundingRatePropsLength+1]
		}
		if prev, ok := provisional[t.Address]; ok {
			info.Balance = prev.Balance
		}

		infos[t.Address] = info
	}

	return infos, nil
}

// unpackVault decodes one token's 15-field vault record and computes the
// derived liquidity-capacity figures.
func (a *Aggregator) unpackVault(info *Info, rec []*big.Int) {
	info.PoolAmount = rec[0]
	info.ReservedAmount = rec[1]
	info.UsdgAmount = rec[2]
	info.RedemptionAmount = rec[3]
	info.Weight = rec[4]
	info.BufferAmount = rec[5]
	info.MaxUsdgAmount = rec[6]
	info.GlobalShortSize = rec[7]
	info.MaxGlobalShortSize = rec[8]
	info.MaxGlobalLongSize = rec[9]
	info.MinPrice = rec[10]
	info.MaxPrice = rec[11]
	info.GuaranteedUsd = rec[12]
	info.MaxPrimaryPrice = rec[13]
	info.MinPrimaryPrice = rec[14]

	// The synthetic stable always trades at exactly one dollar; reported
	// feed values for it are ignored.
	if info.Address == a.usdgAddress {
		info.MinPrice = fixedpoint.OneUSD
		info.MaxPrice = fixedpoint.OneUSD
	}

	// Keep the on-ledger quotes before any feed override can touch them.
	info.ContractMinPrice = info.MinPrice
	info.ContractMaxPrice = info.MaxPrice

	info.AvailableAmount = new(big.Int).Sub(info.PoolAmount, info.ReservedAmount)
	info.Spread = spread(info.MinPrice, info.MaxPrice)

	// A max-USDG of zero means the vault has no explicit cap; substitute
	// the protocol default so downstream capacity math stays meaningful.
	if info.MaxUsdgAmount.Sign() == 0 {
		info.MaxUsdgAmount = fixedpoint.DefaultMaxUsdgAmount
	}

	info.MaxAvailableShort = big.NewInt(0)
	if info.MaxGlobalShortSize.Sign() > 0 {
		info.HasMaxAvailableShort = true
		if info.MaxGlobalShortSize.Cmp(info.GlobalShortSize) > 0 {
			info.MaxAvailableShort = new(big.Int).Sub(info.MaxGlobalShortSize, info.GlobalShortSize)
		}
	}

	tokenUnit := fixedpoint.Expand(1, info.Decimals)
	if info.IsStable {
		info.AvailableUsd = new(big.Int).Mul(info.PoolAmount, info.MinPrice)
	} else {
		info.AvailableUsd = new(big.Int).Mul(info.AvailableAmount, info.MinPrice)
	}
	info.AvailableUsd.Quo(info.AvailableUsd, tokenUnit)

	info.MaxAvailableLong = big.NewInt(0)
	if info.MaxGlobalLongSize.Sign() > 0 {
		info.HasMaxAvailableLong = true
		if info.MaxGlobalLongSize.Cmp(info.GuaranteedUsd) > 0 {
			remaining := new(big.Int).Sub(info.MaxGlobalLongSize, info.GuaranteedUsd)
			if remaining.Cmp(info.AvailableUsd) < 0 {
				info.MaxAvailableLong = remaining
			} else {
				info.MaxAvailableLong = info.AvailableUsd
			}
		}
	} else {
		info.MaxAvailableLong = info.AvailableUsd
	}

	longCapacity := new(big.Int).Add(info.AvailableUsd, info.GuaranteedUsd)
	if info.MaxGlobalLongSize.Sign() > 0 && info.MaxGlobalLongSize.Cmp(longCapacity) < 0 {
		info.MaxLongCapacity = info.MaxGlobalLongSize
	} else {
		info.MaxLongCapacity = longCapacity
	}

	info.ManagedUsd = new(big.Int).Add(info.AvailableUsd, info.GuaranteedUsd)
	if info.MinPrice.Sign() > 0 {
		managed := new(big.Int).Mul(info.ManagedUsd, tokenUnit)
		info.ManagedAmount = managed.Quo(managed, info.MinPrice)
	}
}

// spread is the normalized min/max price distance at the USD scale:
// (max-min)*10^30 / ((max+min)/2). Nil when the midpoint is zero.
func spread(minPrice, maxPrice *big.Int) *big.Int {
	mid := new(big.Int).Add(maxPrice, minPrice)
	mid.Quo(mid, big.NewInt(2))
	if mid.Sign() == 0 {
		return nil
	}
	diff := new(big.Int).Sub(maxPrice, minPrice)
	diff.Mul(diff, fixedpoint.OneUSD)
	return diff.Quo(diff, mid)
}
