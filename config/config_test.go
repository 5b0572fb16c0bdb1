package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, tx.Mainnet, cfg.NetworkID())
	assert.Equal(t, "https://gateway.multiversx.com", cfg.GatewayURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Len(t, cfg.EnabledVenues(), 3)
	assert.Equal(t, string(types.VenueMultiversX), cfg.Venues[2].Name)

	slip, err := cfg.SlippagePercent()
	require.NoError(t, err)
	assert.True(t, types.DefaultSlippage.Equal(slip))

	dec := cfg.TokenDecimals()
	assert.Equal(t, int32(6), dec["USDC-c76f1f"])
	assert.Equal(t, int32(18), dec["EGLD"])
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
network: dev
slippage: "1.5"
http_timeout: 3s
venues:
  - name: MultiversX
    kind: multiversx
    api_url: https://devnet-api.multiversx.com
    function: swap
    enabled: true
  - name: Pulsar Money
    kind: pulsar
    api_url: https://api.pulsar.money
    enabled: false
tokens:
  USDC-350c4e: 6
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, tx.Devnet, cfg.NetworkID())
	assert.Equal(t, "https://devnet-gateway.multiversx.com", cfg.GatewayURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.Len(t, cfg.EnabledVenues(), 1)
	assert.Equal(t, int32(6), cfg.TokenDecimals()["USDC-350c4e"])

	slip, err := cfg.SlippagePercent()
	require.NoError(t, err)
	assert.Equal(t, "1.5", slip.String())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MVX_SWAP_NETWORK", "test")
	t.Setenv("MVX_SWAP_LISTEN_ADDR", ":9999")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, tx.Testnet, cfg.NetworkID())
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoad_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"network":  "network: moon\n",
		"slippage": "slippage: \"100\"\n",
		"kind":     "venues:\n  - name: X\n    kind: uniswap\n    api_url: http://x\n",
		"contract": "venues:\n  - name: X\n    kind: pulsar\n    api_url: http://x\n    contract: erd1bad\n",
		"no url":   "venues:\n  - name: X\n    kind: pulsar\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
