package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ETHWALLET_CHAIN_CHAIN_ID", "1")
	t.Setenv("ETHWALLET_CHAIN_RPC_ENDPOINT", "http://localhost:8545")
	t.Setenv("ETHWALLET_POLLING_INTERVAL", "500ms")
	t.Setenv("ETHWALLET_BROADCAST_MAX_RETRIES", "5")
	t.Setenv("ETHWALLET_LOG_JSON", "true")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.Chain.ChainID)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCEndpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.Interval)
	assert.Equal(t, 5, cfg.Broadcast.MaxRetries)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain:
  chain_id: 17000
  explorer_url: https://holesky.etherscan.io/
gas:
  contract_limit: 250000
wallet:
  derivation_path: m/44'/60'/1'/0/0
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(17000), cfg.Chain.ChainID)
	assert.Equal(t, uint64(250000), cfg.GasPolicy().ContractGas)
	assert.Equal(t, uint64(21000), cfg.GasPolicy().TransferGas)
	assert.Equal(t, "m/44'/60'/1'/0/0", cfg.Wallet.DerivationPath)
	assert.Equal(t, "https://holesky.etherscan.io/tx/0xabc", cfg.Chain.TxURL("0xabc"))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Chain.ChainID = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Wallet.DerivationPath = "44/60"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Broadcast.MaxRetries = 0
	assert.Error(t, cfg.Validate())
}

func TestConversions(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(11155111), cfg.Chain.ChainIDBig().Int64())
	lc := cfg.ListenerConfig()
	assert.Equal(t, cfg.Polling.Interval, lc.Interval)
	assert.Equal(t, cfg.Polling.MaxAttempts, lc.MaxAttempts)

	cfg.Chain.ExplorerURL = ""
	assert.Empty(t, cfg.Chain.TxURL("0xabc"))
}
