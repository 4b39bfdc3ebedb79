package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"perpview/internal/fixedpoint"
)

// Contracts holds the deployed addresses of the protocol contracts the
// client reads from.
type Contracts struct {
	Reader         string
	VaultReader    string
	Vault          string
	PositionRouter string
	Factory        string
}

// Client is a JSON-RPC Source backed by eth_call against the configured
// node. One stateless HTTP round-trip per read; errors propagate to the
// caller untouched.
type Client struct {
	url        string
	httpClient *http.Client
	contracts  Contracts
	nativeAddr string
	log        zerolog.Logger
}

func NewClient(url string, contracts Contracts, nativeAddr string, log zerolog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		contracts:  contracts,
		nativeAddr: nativeAddr,
		log:        log,
	}
}

var _ Source = (*Client)(nil)

func (c *Client) VaultTokenInfo(ctx context.Context, tokens []string) ([]*big.Int, error) {
	data, err := encodeCall(
		"getVaultTokenInfoV4(address,address,address,uint256,address[])",
		c.contracts.Vault,
		c.contracts.PositionRouter,
		c.nativeAddr,
		fixedpoint.Expand(1, 18),
		tokens,
	)
	if err != nil {
		return nil, err
	}
	out, err := c.ethCall(ctx, c.contracts.VaultReader, data)
	if err != nil {
		return nil, fmt.Errorf("vault token info: %w", err)
	}
	return decodeUintArray(out)
}

func (c *Client) TokenBalances(ctx context.Context, account string, tokens []string) ([]*big.Int, error) {
	data, err := encodeCall("getTokenBalances(address,address[])", account, tokens)
	if err != nil {
		return nil, err
	}
	out, err := c.ethCall(ctx, c.contracts.Reader, data)
	if err != nil {
		return nil, fmt.Errorf("token balances: %w", err)
	}
	return decodeUintArray(out)
}

func (c *Client) FundingRates(ctx context.Context, tokens []string) ([]*big.Int, error) {
	data, err := encodeCall(
		"getFundingRates(address,address,address[])",
		c.contracts.Vault,
		c.nativeAddr,
		tokens,
	)
	if err != nil {
		return nil, err
	}
	out, err := c.ethCall(ctx, c.contracts.Reader, data)
	if err != nil {
		return nil, fmt.Errorf("funding rates: %w", err)
	}
	return decodeUintArray(out)
}

func (c *Client) Positions(ctx context.Context, account string, collateralTokens, indexTokens []string, isLong []bool) ([]*big.Int, error) {
	data, err := encodeCall(
		"getPositions(address,address,address[],address[],bool[])",
		c.contracts.Vault,
		account,
		collateralTokens,
		indexTokens,
		isLong,
	)
	if err != nil {
		return nil, err
	}
	out, err := c.ethCall(ctx, c.contracts.Reader, data)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	return decodeUintArray(out)
}

func (c *Client) PositionID(ctx context.Context, account string, index int64) (string, error) {
	data, err := encodeCall("getPositionId(address,uint256)", account, big.NewInt(index))
	if err != nil {
		return "", err
	}
	out, err := c.ethCall(ctx, c.contracts.Factory, data)
	if err != nil {
		return "", fmt.Errorf("position id %d: %w", index, err)
	}
	return decodeBytes32(out)
}

func (c *Client) PositionAdapter(ctx context.Context, positionID string) (string, error) {
	data, err := encodeCall("getPositionAdapter(bytes32)", positionID)
	if err != nil {
		return "", err
	}
	out, err := c.ethCall(ctx, c.contracts.Factory, data)
	if err != nil {
		return "", fmt.Errorf("position adapter %s: %w", positionID, err)
	}
	return decodeAddress(out)
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) ethCall(ctx context.Context, to string, data []byte) ([]byte, error) {
	req := rpcRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params: []interface{}{
			map[string]string{
				"to":   to,
				"data": "0x" + hex.EncodeToString(data),
			},
			"latest",
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eth_call read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eth_call status %d: %s", resp.StatusCode, respBody)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("eth_call decode: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	c.log.Debug().
		Str("to", to).
		Dur("took", time.Since(start)).
		Int("response_bytes", len(rpcResp.Result)/2).
		Msg("eth_call")

	out, err := hex.DecodeString(strings.TrimPrefix(rpcResp.Result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("eth_call result decode: %w", err)
	}
	return out, nil
}
