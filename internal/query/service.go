package query

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"perpview/internal/chain"
	"perpview/internal/observability"
	"perpview/internal/position"
	"perpview/internal/token"
)

// ErrInvalidInput marks caller mistakes: a malformed account address or
// raw arrays whose shape does not match the whitelisted token set. The
// HTTP layer maps it to a client error; everything else is a server error.
var ErrInvalidInput = errors.New("invalid input")

// Service orchestrates one request: fetch raw arrays through the chain
// source, run the pure derivation over them, and shape the result for
// transport. It holds no per-request state and is safe for concurrent use.
type Service struct {
	source     chain.Source
	tokens     []token.Token
	tokenAddrs []string
	nativeAddr string
	aggregator *token.Aggregator
	deriver    *position.Deriver
	log        zerolog.Logger
	metrics    *observability.Metrics
}

func NewService(
	source chain.Source,
	tokens []token.Token,
	nativeAddr, usdgAddr string,
	log zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	addrs := make([]string, 0, len(tokens))
	for _, t := range tokens {
		addrs = append(addrs, t.EffectiveAddress(nativeAddr))
	}
	return &Service{
		source:     source,
		tokens:     tokens,
		tokenAddrs: addrs,
		nativeAddr: nativeAddr,
		aggregator: token.NewAggregator(usdgAddr),
		deriver:    position.NewDeriver(nativeAddr),
		log:        log,
		metrics:    metrics,
	}
}

// TokenInfos derives the full token map for an account.
func (s *Service) TokenInfos(ctx context.Context, account string) (TokenInfoPayload, error) {
	infos, err := s.tokenInfos(ctx, account)
	if err != nil {
		return nil, err
	}

	payload := make(TokenInfoPayload, len(infos))
	for addr, info := range infos {
		payload[addr] = newTokenInfoResponse(info)
	}
	return payload, nil
}

// Positions derives the annotated position list for an account.
func (s *Service) Positions(ctx context.Context, account string, settings position.Settings) (*PositionsPayload, error) {
	if !chain.IsAddress(account) {
		return nil, fmt.Errorf("%w: malformed account address %q", ErrInvalidInput, account)
	}

	infos, err := s.tokenInfos(ctx, account)
	if err != nil {
		return nil, err
	}

	q := position.BuildQuery(s.tokens, s.nativeAddr)

	raw, err := s.fetchPositions(ctx, account, q)
	if err != nil {
		return nil, err
	}
	ids, adapters, err := s.fetchIdentity(ctx, account, q.Len())
	if err != nil {
		return nil, err
	}

	positions, _, err := s.deriver.Derive(raw, q, infos, account, ids, adapters, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.metrics.PositionsDerived.Observe(float64(len(positions)))
	s.log.Debug().
		Str("account", account).
		Int("slots", q.Len()).
		Int("positions", len(positions)).
		Msg("positions derived")

	payload := &PositionsPayload{Positions: make([]*PositionResponse, 0, len(positions))}
	for _, p := range positions {
		payload.Positions = append(payload.Positions, newPositionResponse(p))
	}
	return payload, nil
}

func (s *Service) tokenInfos(ctx context.Context, account string) (map[string]*token.Info, error) {
	if !chain.IsAddress(account) {
		return nil, fmt.Errorf("%w: malformed account address %q", ErrInvalidInput, account)
	}

	start := time.Now()
	balances, err := s.source.TokenBalances(ctx, account, s.tokenAddrs)
	s.observe("getTokenBalances", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch token balances: %w", err)
	}

	start = time.Now()
	vaultInfo, err := s.source.VaultTokenInfo(ctx, s.tokenAddrs)
	s.observe("getVaultTokenInfo", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch vault token info: %w", err)
	}

	start = time.Now()
	fundingRates, err := s.source.FundingRates(ctx, s.tokenAddrs)
	s.observe("getFundingRates", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch funding rates: %w", err)
	}

	infos, err := s.aggregator.Derive(s.tokens, balances, vaultInfo, fundingRates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.metrics.TokensDerived.Set(float64(len(infos)))
	return infos, nil
}

func (s *Service) fetchPositions(ctx context.Context, account string, q position.Query) ([]*big.Int, error) {
	start := time.Now()
	raw, err := s.source.Positions(ctx, account, q.CollateralTokens, q.IndexTokens, q.IsLong)
	s.observe("getPositions", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	return raw, nil
}

// fetchIdentity resolves the factory id and settlement adapter for every
// query slot, in slot order.
func (s *Service) fetchIdentity(ctx context.Context, account string, slots int) (ids, adapters []string, err error) {
	ids = make([]string, slots)
	adapters = make([]string, slots)

	for i := 0; i < slots; i++ {
		start := time.Now()
		id, err := s.source.PositionID(ctx, account, int64(i))
		s.observe("getPositionId", start, err)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch position id: %w", err)
		}
		ids[i] = id
	}
	for i, id := range ids {
		start := time.Now()
		adapter, err := s.source.PositionAdapter(ctx, id)
		s.observe("getPositionAdapter", start, err)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch position adapter: %w", err)
		}
		adapters[i] = adapter
	}
	return ids, adapters, nil
}

// observe records one upstream call outcome.
func (s *Service) observe(method string, start time.Time, err error) {
	s.metrics.UpstreamCalls.WithLabelValues(method).Inc()
	s.metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues(method).Inc()
	}
}
