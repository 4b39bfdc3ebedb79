package server_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"perpview/internal/fixedpoint"
	"perpview/internal/observability"
	"perpview/internal/query"
	"perpview/internal/server"
	"perpview/internal/token"
)

const (
	addrA      = "0x1111111111111111111111111111111111111111"
	addrUsdg   = "0x4509111111111111111111111111111111111111"
	nativeAddr = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	account    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var testMetrics = observability.NewMetrics()

// stubSource serves a single tradable token with one open long slot.
type stubSource struct{}

func zeros(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(0)
	}
	return out
}

func (stubSource) VaultTokenInfo(ctx context.Context, tokens []string) ([]*big.Int, error) {
	rec := zeros(token.VaultPropsLength)
	rec[0] = fixedpoint.Expand(100, 18)
	rec[10] = fixedpoint.Expand(2100, 30)
	rec[11] = fixedpoint.Expand(2150, 30)
	return rec, nil
}

func (stubSource) TokenBalances(ctx context.Context, account string, tokens []string) ([]*big.Int, error) {
	return zeros(1), nil
}

func (stubSource) FundingRates(ctx context.Context, tokens []string) ([]*big.Int, error) {
	return zeros(token.FundingRatePropsLength), nil
}

func (stubSource) Positions(ctx context.Context, account string, collateralTokens, indexTokens []string, isLong []bool) ([]*big.Int, error) {
	raw := zeros(9)
	raw[0] = fixedpoint.Expand(100, 30)
	raw[1] = fixedpoint.Expand(10, 30)
	raw[2] = fixedpoint.Expand(2000, 30)
	return raw, nil
}

func (stubSource) PositionID(ctx context.Context, account string, index int64) (string, error) {
	return "0x" + "00", nil
}

func (stubSource) PositionAdapter(ctx context.Context, positionID string) (string, error) {
	return "0x4444444444444444444444444444444444444444", nil
}

func newTestServer(t *testing.T, ready bool) *httptest.Server {
	t.Helper()

	svc := query.NewService(
		stubSource{},
		[]token.Token{{Symbol: "AAA", Address: addrA, Decimals: 18}},
		nativeAddr,
		addrUsdg,
		zerolog.Nop(),
		testMetrics,
	)
	health := observability.NewHealthChecker()
	health.SetReady(ready)

	srv := server.NewHTTPServer(":0", server.Deps{
		Service:       svc,
		HealthChecker: health,
		Metrics:       testMetrics,
		Log:           zerolog.Nop(),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, body
}

// ============================================================================
// Test: positions route
// ============================================================================

func TestPositionsRoute_OK(t *testing.T) {
	ts := newTestServer(t, true)
	resp, body := getJSON(t, ts.URL+"/positions?account="+account)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}

	payload, ok := body["payload"].(map[string]interface{})
	if !ok {
		t.Fatalf("body: got %v, want payload object", body)
	}
	positions, ok := payload["positions"].([]interface{})
	if !ok || len(positions) != 1 {
		t.Fatalf("positions: got %v, want 1 entry", payload["positions"])
	}

	first := positions[0].(map[string]interface{})
	if first["deltaStr"] != "+$5.00" {
		t.Errorf("deltaStr: got %v, want +$5.00", first["deltaStr"])
	}
	if first["leverageStr"] != "10.00x" {
		t.Errorf("leverageStr: got %v, want 10.00x", first["leverageStr"])
	}
}

func TestPositionsRoute_BadAccount(t *testing.T) {
	ts := newTestServer(t, true)
	resp, body := getJSON(t, ts.URL+"/positions?account=nonsense")

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if _, ok := body["error"]; !ok {
		t.Error("missing error field in response")
	}
}

func TestPositionsRoute_SettingsToggleStrings(t *testing.T) {
	ts := newTestServer(t, true)
	_, body := getJSON(t, ts.URL+"/positions?account="+account+"&showPnlAfterFees=true")

	payload := body["payload"].(map[string]interface{})
	first := payload["positions"].([]interface{})[0].(map[string]interface{})
	// After-fees delta becomes the primary string: 5 dollars less 20 cents
	// of fees.
	if first["deltaStr"] != "+$4.80" {
		t.Errorf("deltaStr: got %v, want +$4.80", first["deltaStr"])
	}
}

// ============================================================================
// Test: token info route
// ============================================================================

func TestTokenInfoRoute_OK(t *testing.T) {
	ts := newTestServer(t, true)
	resp, body := getJSON(t, ts.URL+"/tokeninfo?account="+account)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	payload, ok := body["payload"].(map[string]interface{})
	if !ok {
		t.Fatalf("body: got %v, want payload object", body)
	}
	entry, ok := payload[addrA].(map[string]interface{})
	if !ok {
		t.Fatalf("payload: missing entry for %s", addrA)
	}
	if entry["symbol"] != "AAA" {
		t.Errorf("symbol: got %v, want AAA", entry["symbol"])
	}
}

func TestTokenInfoRoute_BadAccount(t *testing.T) {
	ts := newTestServer(t, true)
	resp, _ := getJSON(t, ts.URL+"/tokeninfo?account=0x1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

// ============================================================================
// Test: health routes
// ============================================================================

func TestHealthRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	resp, _ := getJSON(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", resp.StatusCode)
	}

	resp, _ = getJSON(t, ts.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready: got %d, want 503", resp.StatusCode)
	}

	ready := newTestServer(t, true)
	resp, _ = getJSON(t, ready.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz when ready: got %d, want 200", resp.StatusCode)
	}
}
