// Package config loads the device policy from a YAML file.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/signcore/pkg/btc"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/evm"
	"github.com/suffix-labs/signcore/pkg/logger"
)

// Config is the complete device policy.
type Config struct {
	Logging logger.Config `yaml:"logging"`
	Flow    FlowConfig    `yaml:"flow"`
	BTC     BTCConfig     `yaml:"btc"`
	EVM     EVMConfig     `yaml:"evm"`
	Wallet  WalletConfig  `yaml:"wallet"`
}

// FlowConfig bounds a signing flow.
type FlowConfig struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
	MaxTxnSize        uint32        `yaml:"max_txn_size"`
	ChunkSize         int           `yaml:"chunk_size"`
	StreamSliceSize   int           `yaml:"stream_slice_size"`
}

// BTCConfig is the Bitcoin policy.
type BTCConfig struct {
	// MaxFeeRate in satoshi per 1000 virtual bytes. Fees above it need an
	// extra confirmation.
	MaxFeeRate uint64 `yaml:"max_fee_rate"`
	MaxInputs  int    `yaml:"max_inputs"`
	MaxOutputs int    `yaml:"max_outputs"`
}

// EVMConfig describes the EVM network and its token whitelist.
type EVMConfig struct {
	Name   string      `yaml:"name"`
	Symbol string      `yaml:"symbol"`
	Tokens []evm.Token `yaml:"tokens"`
}

// WalletConfig locates the wallet directory and the simulation seed secret.
type WalletConfig struct {
	DBPath string `yaml:"db_path"`

	// MasterSecret is the hex secret simulated seeds are derived from.
	MasterSecret string `yaml:"master_secret"`
}

// Default returns the built-in policy.
func Default() *Config {
	return &Config{
		Logging: logger.DefaultConfig(),
		Flow: FlowConfig{
			InactivityTimeout: 30 * time.Second,
			MaxTxnSize:        64 * 1024,
			ChunkSize:         2048,
			StreamSliceSize:   btc.DefaultSliceSize,
		},
		BTC: BTCConfig{
			MaxFeeRate: btc.DefaultMaxFeeRate,
			MaxInputs:  btc.DefaultMaxInputs,
			MaxOutputs: btc.DefaultMaxOutputs,
		},
		EVM: EVMConfig{
			Name:   "Ethereum",
			Symbol: "ETH",
			Tokens: evm.DefaultTokens(),
		},
		Wallet: WalletConfig{
			DBPath:       "wallets.db",
			MasterSecret: hex.EncodeToString(make([]byte, crypto.SeedSize)),
		},
	}
}

// Load reads the configuration at path, creating it with the defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Flow.validate(); err != nil {
		return fmt.Errorf("flow config validation failed: %w", err)
	}
	if err := c.BTC.validate(); err != nil {
		return fmt.Errorf("btc config validation failed: %w", err)
	}
	if err := c.EVM.validate(); err != nil {
		return fmt.Errorf("evm config validation failed: %w", err)
	}
	if err := c.Wallet.validate(); err != nil {
		return fmt.Errorf("wallet config validation failed: %w", err)
	}
	return nil
}

func (c FlowConfig) validate() error {
	if c.InactivityTimeout < time.Second {
		return fmt.Errorf("flow.inactivity_timeout must be at least 1 second")
	}
	if c.MaxTxnSize == 0 {
		return fmt.Errorf("flow.max_txn_size must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("flow.chunk_size must be positive")
	}
	if c.StreamSliceSize <= 0 {
		return fmt.Errorf("flow.stream_slice_size must be positive")
	}
	return nil
}

func (c BTCConfig) validate() error {
	if c.MaxFeeRate < 1000 {
		return fmt.Errorf("btc.max_fee_rate must be at least 1000 sat/kvB")
	}
	if c.MaxInputs <= 0 || c.MaxOutputs <= 0 {
		return fmt.Errorf("btc.max_inputs and btc.max_outputs must be positive")
	}
	return nil
}

func (c EVMConfig) validate() error {
	seen := make(map[string]bool, len(c.Tokens))
	for i, t := range c.Tokens {
		if t.Symbol == "" {
			return fmt.Errorf("evm.tokens[%d].symbol cannot be empty", i)
		}
		if seen[t.Address.Hex()] {
			return fmt.Errorf("evm.tokens[%d] duplicates %s", i, t.Address.Hex())
		}
		seen[t.Address.Hex()] = true
	}
	return nil
}

func (c WalletConfig) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("wallet.db_path cannot be empty")
	}
	if _, err := c.Secret(); err != nil {
		return err
	}
	return nil
}

// Secret decodes MasterSecret.
func (c WalletConfig) Secret() ([]byte, error) {
	b, err := hex.DecodeString(c.MasterSecret)
	if err != nil {
		return nil, fmt.Errorf("wallet.master_secret must be hex: %w", err)
	}
	if len(b) < 16 {
		return nil, fmt.Errorf("wallet.master_secret must hold at least 16 bytes")
	}
	return b, nil
}

// BTCChain returns the Bitcoin chain policy.
func (c *Config) BTCChain() btc.Config {
	return btc.Config{
		Limits:     btc.Limits{MaxInputs: c.BTC.MaxInputs, MaxOutputs: c.BTC.MaxOutputs},
		MaxFeeRate: c.BTC.MaxFeeRate,
		SliceSize:  c.Flow.StreamSliceSize,
	}
}

// EVMChain returns the EVM chain policy.
func (c *Config) EVMChain() evm.Config {
	return evm.Config{Name: c.EVM.Name, Symbol: c.EVM.Symbol, Tokens: c.EVM.Tokens}
}
