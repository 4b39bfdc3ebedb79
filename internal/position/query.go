package position

import "perpview/internal/token"

// Query holds the three equal-length ordered sequences defining which
// (collateral, index, side) slots to request from the ledger. The i-th
// entry of each slice describes slot i, and that positional alignment must
// match the raw position array the ledger returns. Immutable once built.
type Query struct {
	CollateralTokens []string
	IndexTokens      []string
	IsLong           []bool
}

// Len returns the number of slots in the query.
func (q Query) Len() int {
	return len(q.CollateralTokens)
}

// BuildQuery enumerates the slots to request for a whitelisted token set:
// one long per non-stable, non-wrapped token (collateral = index = the
// token), then one short per (stable, non-stable non-wrapped) pair with
// the stable token as collateral. Order is significant and duplicates are
// not filtered; a token flagged both stable and tradable is a
// configuration error upstream.
func BuildQuery(tokens []token.Token, nativeAddr string) Query {
	var q Query

	for _, t := range tokens {
		if t.IsStable || t.IsWrapped {
			continue
		}
		addr := t.EffectiveAddress(nativeAddr)
		q.CollateralTokens = append(q.CollateralTokens, addr)
		q.IndexTokens = append(q.IndexTokens, addr)
		q.IsLong = append(q.IsLong, true)
	}

	for _, stable := range tokens {
		if !stable.IsStable {
			continue
		}
		for _, t := range tokens {
			if t.IsStable || t.IsWrapped {
				continue
			}
			q.CollateralTokens = append(q.CollateralTokens, stable.Address)
			q.IndexTokens = append(q.IndexTokens, t.EffectiveAddress(nativeAddr))
			q.IsLong = append(q.IsLong, false)
		}
	}

	return q
}
