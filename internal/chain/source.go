// Package chain talks to the protocol's on-ledger reader contracts. The
// derivation core consumes it strictly through the Source interface; the
// JSON-RPC client here is one implementation, test fakes are another.
package chain

import (
	"context"
	"math/big"
	"regexp"
)

// Source is the raw data the derivation core consumes from the ledger.
// Every slice comes back in the positional order of its request; callers
// are responsible for keeping the token and query orders aligned across
// calls. Failures propagate as-is; no retries, no masking.
type Source interface {
	// VaultTokenInfo returns 15 integers per requested token.
	VaultTokenInfo(ctx context.Context, tokens []string) ([]*big.Int, error)

	// TokenBalances returns one balance per requested token.
	TokenBalances(ctx context.Context, account string, tokens []string) ([]*big.Int, error)

	// FundingRates returns 2 integers (rate, cumulative rate) per token.
	FundingRates(ctx context.Context, tokens []string) ([]*big.Int, error)

	// Positions returns 9 integers per query slot.
	Positions(ctx context.Context, account string, collateralTokens, indexTokens []string, isLong []bool) ([]*big.Int, error)

	// PositionID resolves the factory id of the account's slot at index.
	PositionID(ctx context.Context, account string, index int64) (string, error)

	// PositionAdapter resolves the settlement adapter behind a position id.
	PositionAdapter(ctx context.Context, positionID string) (string, error)
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a well-formed 20-byte hex address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}
