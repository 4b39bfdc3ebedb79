package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"perpview/internal/config"
)

const validYAML = `
chain:
  rpc_url: "http://localhost:8545"
  contracts:
    reader: "0x1111111111111111111111111111111111111111"
    vault_reader: "0x2222222222222222222222222222222222222222"
    vault: "0x3333333333333333333333333333333333333333"
    position_router: "0x4444444444444444444444444444444444444444"
    factory: "0x5555555555555555555555555555555555555555"

tokens:
  native: "0x6666666666666666666666666666666666666666"
  usdg: "0x7777777777777777777777777777777777777777"
  whitelist:
    - symbol: ETH
      address: "0x0000000000000000000000000000000000000000"
      decimals: 18
    - symbol: USDC
      address: "0x8888888888888888888888888888888888888888"
      decimals: 6
      stable: true
`

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// ============================================================================
// Test: loading and defaults
// ============================================================================

func TestLoad_Valid(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Chain.RPCURL != "http://localhost:8545" {
		t.Errorf("rpc url: got %q", cfg.Chain.RPCURL)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MetricsAddr != ":9100" {
		t.Errorf("default addrs: got %q %q", cfg.Server.Addr, cfg.Server.MetricsAddr)
	}

	tokens := cfg.WhitelistedTokens()
	if len(tokens) != 2 {
		t.Fatalf("whitelist: got %d tokens, want 2", len(tokens))
	}
	if tokens[0].Symbol != "ETH" || tokens[0].Decimals != 18 || tokens[0].IsStable {
		t.Errorf("token 0: got %+v", tokens[0])
	}
	if !tokens[1].IsStable {
		t.Error("token 1: stable flag lost")
	}

	contracts := cfg.Contracts()
	if contracts.Vault != "0x3333333333333333333333333333333333333333" {
		t.Errorf("vault contract: got %q", contracts.Vault)
	}
}

func TestLoad_ExplicitAddrsKept(t *testing.T) {
	yaml := "server:\n  addr: \":9999\"\n" + validYAML
	cfg, err := config.Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr: got %q, want :9999", cfg.Server.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ============================================================================
// Test: validation
// ============================================================================

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "missing rpc url",
			mutate:  func(y string) string { return strings.Replace(y, `rpc_url: "http://localhost:8545"`, `rpc_url: ""`, 1) },
			wantErr: "rpc_url",
		},
		{
			name: "malformed contract address",
			mutate: func(y string) string {
				return strings.Replace(y, "0x3333333333333333333333333333333333333333", "not-an-address", 1)
			},
			wantErr: "vault",
		},
		{
			name: "malformed whitelist address",
			mutate: func(y string) string {
				return strings.Replace(y, "0x8888888888888888888888888888888888888888", "0x123", 1)
			},
			wantErr: "USDC",
		},
		{
			name:    "zero decimals",
			mutate:  func(y string) string { return strings.Replace(y, "decimals: 6", "decimals: 0", 1) },
			wantErr: "decimals",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, c.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("error %q does not mention %q", err, c.wantErr)
			}
		})
	}
}

func TestLoad_EmptyWhitelist(t *testing.T) {
	yaml := validYAML[:strings.Index(validYAML, "  whitelist:")] + "  whitelist: []\n"
	if _, err := config.Load(writeConfig(t, yaml)); err == nil {
		t.Error("expected error for empty whitelist")
	}
}
