package token

import "math/big"

// AddressZero is the canonical placeholder the protocol uses for the
// chain-native asset. Query building substitutes the wrapped-native
// address for it before anything goes on the wire.
const AddressZero = "0x0000000000000000000000000000000000000000"

// Token is the static reference record for a whitelisted asset. It is
// loaded once from configuration and never mutated.
type Token struct {
	Symbol    string
	Address   string
	Decimals  int
	IsStable  bool
	IsWrapped bool
}

// EffectiveAddress resolves the native placeholder to the wrapped-native
// token address; every other token maps to itself.
func (t Token) EffectiveAddress(nativeAddr string) string {
	if t.Address == AddressZero {
		return nativeAddr
	}
	return t.Address
}

// Info is the fully derived per-request view of a token: the static record
// plus vault state, prices, funding rates and liquidity-capacity figures.
// Amounts are fixed-point big integers at the scales the vault reports
// (prices and USD figures at 30 decimals, token amounts at the token's own
// decimals). A nil field means the upstream array for it was not supplied.
type Info struct {
	Token

	Balance *big.Int

	PoolAmount       *big.Int
	ReservedAmount   *big.Int
	AvailableAmount  *big.Int
	UsdgAmount       *big.Int
	RedemptionAmount *big.Int
	Weight           *big.Int
	BufferAmount     *big.Int
	MaxUsdgAmount    *big.Int
	GlobalShortSize  *big.Int

	MaxGlobalShortSize *big.Int
	MaxGlobalLongSize  *big.Int

	MinPrice        *big.Int
	MaxPrice        *big.Int
	GuaranteedUsd   *big.Int
	MaxPrimaryPrice *big.Int
	MinPrimaryPrice *big.Int

	// Contract prices are kept alongside min/max so a later price-feed
	// override never loses the on-ledger quote.
	ContractMinPrice *big.Int
	ContractMaxPrice *big.Int

	// Spread is nil when maxPrice+minPrice is zero (no meaningful midpoint).
	Spread *big.Int

	FundingRate           *big.Int
	CumulativeFundingRate *big.Int

	HasMaxAvailableShort bool
	MaxAvailableShort    *big.Int
	AvailableUsd         *big.Int
	HasMaxAvailableLong  bool
	MaxAvailableLong     *big.Int
	MaxLongCapacity      *big.Int
	ManagedUsd           *big.Int
	// ManagedAmount is nil when minPrice is zero (nothing to divide by).
	ManagedAmount *big.Int
}

// Lookup resolves a token address against a derived info map, mapping the
// wrapped-native address back to the native placeholder entry.
func Lookup(infos map[string]*Info, addr, nativeAddr string) *Info {
	if addr == nativeAddr {
		if info, ok := infos[AddressZero]; ok {
			return info
		}
	}
	return infos[addr]
}
