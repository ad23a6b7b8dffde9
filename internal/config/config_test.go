package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, "MNTL", cfg.Feed.BaseToken)
	require.Equal(t, "osmosis", cfg.Feed.QuoteMarket)
	require.Equal(t, "60000", cfg.Rebalance.TargetBalance.String())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"feed": {"base_token": "ATOM", "quote_market": "mxc", "refresh_sec": 5},
		"rebalance": {"target_balance": "1000", "min_deviation": "50"}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ATOM", cfg.Feed.BaseToken)
	require.Equal(t, "mxc", cfg.Feed.QuoteMarket)
	require.Equal(t, 5, cfg.Feed.RefreshSec)
	require.Equal(t, "1000", cfg.Rebalance.TargetBalance.String())
	require.Equal(t, "50", cfg.Rebalance.MinDeviation.String())
	// untouched sections keep defaults
	require.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  base_token: OSMO
  quote_market: osmosis
quoting:
  bid_spread: "0.005"
  ask_spread: "0.01"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "OSMO", cfg.Feed.BaseToken)
	require.Equal(t, "0.005", cfg.Quoting.BidSpread.String())
	require.Equal(t, "0.01", cfg.Quoting.AskSpread.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BASE_TOKEN", "HUAHUA")
	t.Setenv("TARGET_BALANCE", "90000")
	t.Setenv("FEED_STALE_FALLBACK", "true")
	t.Setenv("EXCHANGE_API_KEY", "k-123")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, "HUAHUA", cfg.Feed.BaseToken)
	require.Equal(t, "90000", cfg.Rebalance.TargetBalance.String())
	require.True(t, cfg.Feed.StaleFallback)
	require.Equal(t, "k-123", cfg.Exchange.APIKey)
}
