// Package config loads settings from defaults, an optional YAML file and
// ETHWALLET_* environment variables. Values are returned, never stored in
// package globals; callers pass ChainConfig to whatever needs it.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/listener"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// EnvPrefix is prepended to every environment variable, e.g.
// ETHWALLET_CHAIN_RPC_ENDPOINT.
const EnvPrefix = "ETHWALLET"

// Config holds all configurable parameters.
type Config struct {
	Chain     ChainConfig     `mapstructure:"chain"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Gas       GasConfig       `mapstructure:"gas"`
	Log       LogConfig       `mapstructure:"log"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
}

// ChainConfig identifies the single chain this process talks to.
type ChainConfig struct {
	ChainID     uint64 `mapstructure:"chain_id"`
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	ExplorerURL string `mapstructure:"explorer_url"`
}

// ChainIDBig returns the chain id as used by the codec.
func (c ChainConfig) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(c.ChainID)
}

// TxURL links a transaction hash in the block explorer, or "" when no
// explorer is configured.
func (c ChainConfig) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(c.ExplorerURL, "/") + "/tx/" + hash
}

// PollingConfig controls receipt polling.
type PollingConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	ConfirmationDepth uint64        `mapstructure:"confirmation_depth"`
}

// BroadcastConfig controls eth_sendRawTransaction retries and RPC timeouts.
type BroadcastConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// GasConfig is the gas limit fallback policy.
type GasConfig struct {
	TransferLimit        uint64 `mapstructure:"transfer_limit"`
	ContractLimit        uint64 `mapstructure:"contract_limit"`
	SimpleBufferPercent  uint64 `mapstructure:"simple_buffer_percent"`
	ComplexBufferPercent uint64 `mapstructure:"complex_buffer_percent"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// WalletConfig holds derivation defaults.
type WalletConfig struct {
	DerivationPath string `mapstructure:"derivation_path"`
}

// Default returns a Config populated with default values (Sepolia).
func Default() Config {
	return Config{
		Chain: ChainConfig{
			ChainID:     11155111,
			RPCEndpoint: "https://ethereum-sepolia-rpc.publicnode.com",
			ExplorerURL: "https://sepolia.etherscan.io",
		},
		Polling: PollingConfig{
			Interval:          3 * time.Second,
			MaxAttempts:       100,
			ConfirmationDepth: 1,
		},
		Broadcast: BroadcastConfig{
			MaxRetries:     3,
			RequestTimeout: 30 * time.Second,
		},
		Gas: GasConfig{
			TransferLimit:        21000,
			ContractLimit:        100000,
			SimpleBufferPercent:  10,
			ComplexBufferPercent: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
		Wallet: WalletConfig{
			DerivationPath: "m/44'/60'/0'/0/0",
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("chain.chain_id", d.Chain.ChainID)
	v.SetDefault("chain.rpc_endpoint", d.Chain.RPCEndpoint)
	v.SetDefault("chain.explorer_url", d.Chain.ExplorerURL)

	v.SetDefault("polling.interval", d.Polling.Interval)
	v.SetDefault("polling.max_attempts", d.Polling.MaxAttempts)
	v.SetDefault("polling.confirmation_depth", d.Polling.ConfirmationDepth)

	v.SetDefault("broadcast.max_retries", d.Broadcast.MaxRetries)
	v.SetDefault("broadcast.request_timeout", d.Broadcast.RequestTimeout)

	v.SetDefault("gas.transfer_limit", d.Gas.TransferLimit)
	v.SetDefault("gas.contract_limit", d.Gas.ContractLimit)
	v.SetDefault("gas.simple_buffer_percent", d.Gas.SimpleBufferPercent)
	v.SetDefault("gas.complex_buffer_percent", d.Gas.ComplexBufferPercent)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)

	v.SetDefault("wallet.derivation_path", d.Wallet.DerivationPath)
}

// Load reads configuration into a Config. configFile may be empty, in which
// case ./ethwallet.yaml is used if present. Environment variables override
// the file; flags bound on v override both.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ethwallet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c Config) Validate() error {
	if c.Chain.ChainID == 0 {
		return errors.New("config: chain.chain_id must be positive")
	}
	if c.Broadcast.MaxRetries < 1 {
		return errors.New("config: broadcast.max_retries must be at least 1")
	}
	if c.Polling.Interval <= 0 || c.Polling.MaxAttempts < 1 {
		return errors.New("config: polling.interval and polling.max_attempts must be positive")
	}
	if _, err := wallet.ParsePath(c.Wallet.DerivationPath); err != nil {
		return fmt.Errorf("config: wallet.derivation_path: %w", err)
	}
	return nil
}

// GasPolicy converts the gas section for chain.GasEstimator.
func (c Config) GasPolicy() chain.GasPolicy {
	return chain.GasPolicy{
		TransferGas:          c.Gas.TransferLimit,
		ContractGas:          c.Gas.ContractLimit,
		SimpleBufferPercent:  c.Gas.SimpleBufferPercent,
		ComplexBufferPercent: c.Gas.ComplexBufferPercent,
	}
}

// ListenerConfig converts the polling section for listener.ReceiptPoller.
func (c Config) ListenerConfig() listener.PollingConfig {
	return listener.PollingConfig{
		Interval:          c.Polling.Interval,
		MaxAttempts:       c.Polling.MaxAttempts,
		ConfirmationDepth: c.Polling.ConfirmationDepth,
	}
}
