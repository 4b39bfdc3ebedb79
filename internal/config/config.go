// Package config loads the service configuration: listen addresses, the
// ledger RPC endpoint, deployed contract addresses and the whitelisted
// token table. Protocol numeric constants are compile-time and do not
// live here.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"perpview/internal/chain"
	"perpview/internal/token"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Tokens TokensConfig `mapstructure:"tokens"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type ChainConfig struct {
	RPCURL    string          `mapstructure:"rpc_url"`
	Contracts ContractsConfig `mapstructure:"contracts"`
}

type ContractsConfig struct {
	Reader         string `mapstructure:"reader"`
	VaultReader    string `mapstructure:"vault_reader"`
	Vault          string `mapstructure:"vault"`
	PositionRouter string `mapstructure:"position_router"`
	Factory        string `mapstructure:"factory"`
}

type TokensConfig struct {
	// Native is the wrapped-native token address substituted for the
	// zero-address placeholder in keys and queries.
	Native string `mapstructure:"native"`
	// Usdg is the protocol's synthetic debt-unit token, price-pinned to 1.0.
	Usdg      string        `mapstructure:"usdg"`
	Whitelist []TokenConfig `mapstructure:"whitelist"`
}

type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals int    `mapstructure:"decimals"`
	Stable   bool   `mapstructure:"stable"`
	Wrapped  bool   `mapstructure:"wrapped"`
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9100"
	}
}

func (c *Config) validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	for name, addr := range map[string]string{
		"chain.contracts.reader":          c.Chain.Contracts.Reader,
		"chain.contracts.vault_reader":    c.Chain.Contracts.VaultReader,
		"chain.contracts.vault":           c.Chain.Contracts.Vault,
		"chain.contracts.position_router": c.Chain.Contracts.PositionRouter,
		"chain.contracts.factory":         c.Chain.Contracts.Factory,
		"tokens.native":                   c.Tokens.Native,
		"tokens.usdg":                     c.Tokens.Usdg,
	} {
		if !chain.IsAddress(addr) {
			return fmt.Errorf("%s: malformed address %q", name, addr)
		}
	}

	if len(c.Tokens.Whitelist) == 0 {
		return fmt.Errorf("tokens.whitelist must not be empty")
	}
	for i, t := range c.Tokens.Whitelist {
		if t.Symbol == "" {
			return fmt.Errorf("tokens.whitelist[%d]: symbol is required", i)
		}
		if !chain.IsAddress(t.Address) {
			return fmt.Errorf("tokens.whitelist[%d] (%s): malformed address %q", i, t.Symbol, t.Address)
		}
		if t.Decimals <= 0 {
			return fmt.Errorf("tokens.whitelist[%d] (%s): decimals must be positive", i, t.Symbol)
		}
	}

	return nil
}

// WhitelistedTokens converts the configured table into token records.
func (c *Config) WhitelistedTokens() []token.Token {
	out := make([]token.Token, 0, len(c.Tokens.Whitelist))
	for _, t := range c.Tokens.Whitelist {
		out = append(out, token.Token{
			Symbol:    t.Symbol,
			Address:   t.Address,
			Decimals:  t.Decimals,
			IsStable:  t.Stable,
			IsWrapped: t.Wrapped,
		})
	}
	return out
}

// Contracts converts the configured addresses into the chain client shape.
func (c *Config) Contracts() chain.Contracts {
	return chain.Contracts{
		Reader:         c.Chain.Contracts.Reader,
		VaultReader:    c.Chain.Contracts.VaultReader,
		Vault:          c.Chain.Contracts.Vault,
		PositionRouter: c.Chain.Contracts.PositionRouter,
		Factory:        c.Chain.Contracts.Factory,
	}
}
