// Package config loads bot configuration from a JSON or YAML file with
// environment-variable overrides for secrets and per-deployment knobs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal is a decimal.Decimal that also unmarshals from YAML scalars.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", value.Value, err)
	}
	d.Decimal = parsed
	return nil
}

func dec(s string) Decimal {
	return Decimal{decimal.RequireFromString(s)}
}

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Feed configures the external price oracle.
type Feed struct {
	BaseURL               string `json:"base_url" yaml:"base_url"`
	APIKey                string `json:"api_key" yaml:"api_key"`
	BaseToken             string `json:"base_token" yaml:"base_token"`
	QuoteMarket           string `json:"quote_market" yaml:"quote_market"`
	RefreshSec            int    `json:"refresh_sec" yaml:"refresh_sec"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                 int    `json:"burst" yaml:"burst"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	StaleFallback         bool   `json:"stale_fallback" yaml:"stale_fallback"`
}

// Exchange configures the trading venue client.
type Exchange struct {
	BaseURL     string `json:"base_url" yaml:"base_url"`
	APIKey      string `json:"api_key" yaml:"api_key"`
	APISecret   string `json:"api_secret" yaml:"api_secret"`
	TradingPair string `json:"trading_pair" yaml:"trading_pair"`
	BaseAsset   string `json:"base_asset" yaml:"base_asset"`
}

// Rebalance configures the balance-keeping controller.
type Rebalance struct {
	TargetBalance Decimal `json:"target_balance" yaml:"target_balance"`
	MinDeviation  Decimal `json:"min_deviation" yaml:"min_deviation"`
}

// Quoting configures the market-making quoter.
type Quoting struct {
	BidSpread       Decimal `json:"bid_spread" yaml:"bid_spread"`
	AskSpread       Decimal `json:"ask_spread" yaml:"ask_spread"`
	OrderAmount     Decimal `json:"order_amount" yaml:"order_amount"`
	OrderRefreshSec int     `json:"order_refresh_sec" yaml:"order_refresh_sec"`
}

type Logging struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

type Config struct {
	Server    Server    `json:"server" yaml:"server"`
	Feed      Feed      `json:"feed" yaml:"feed"`
	Exchange  Exchange  `json:"exchange" yaml:"exchange"`
	Rebalance Rebalance `json:"rebalance" yaml:"rebalance"`
	Quoting   Quoting   `json:"quoting" yaml:"quoting"`
	Logging   Logging   `json:"logging" yaml:"logging"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Feed: Feed{
			BaseToken:            "MNTL",
			QuoteMarket:          "osmosis",
			RefreshSec:           30,
			MaxRequestsPerMinute: 10,
			Burst:                2,
		},
		Exchange: Exchange{
			TradingPair: "mntl_usdt",
			BaseAsset:   "mntl",
		},
		Rebalance: Rebalance{
			TargetBalance: dec("60000"),
			MinDeviation:  dec("11500"),
		},
		Quoting: Quoting{
			BidSpread:       dec("0.002"),
			AskSpread:       dec("0.002"),
			OrderAmount:     dec("22000"),
			OrderRefreshSec: 15,
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}

// Load reads config from path; .yaml/.yml files are parsed as YAML,
// everything else as JSON. If path is empty, config.json or config.yaml in
// the working directory is used when present. Environment variables
// override select fields afterwards.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config: %w", err)
				}
			default:
				if err := json.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config: %w", err)
				}
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x := envInt("REQUEST_TIMEOUT_SEC"); x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}

	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("BASE_TOKEN"); v != "" {
		cfg.Feed.BaseToken = v
	}
	if v := os.Getenv("QUOTE_MARKET"); v != "" {
		cfg.Feed.QuoteMarket = v
	}
	if x := envInt("FEED_REFRESH_SEC"); x > 0 {
		cfg.Feed.RefreshSec = x
	}
	if x := envInt("FEED_MAX_RPM"); x >= 0 && os.Getenv("FEED_MAX_RPM") != "" {
		cfg.Feed.MaxRequestsPerMinute = x
	}
	if x := envInt("FEED_BURST"); x > 0 {
		cfg.Feed.Burst = x
	}
	if x := envInt("FEED_MIN_INTERVAL_SEC"); x > 0 {
		cfg.Feed.MinRequestIntervalSec = x
	}
	if v := os.Getenv("FEED_STALE_FALLBACK"); v != "" {
		cfg.Feed.StaleFallback = envBool(v)
	}

	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		cfg.Exchange.BaseURL = v
	}
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}
	if v := os.Getenv("TRADING_PAIR"); v != "" {
		cfg.Exchange.TradingPair = v
	}
	if v := os.Getenv("BASE_ASSET"); v != "" {
		cfg.Exchange.BaseAsset = v
	}

	if d, ok := envDecimal("TARGET_BALANCE"); ok {
		cfg.Rebalance.TargetBalance = d
	}
	if d, ok := envDecimal("MIN_DEVIATION"); ok {
		cfg.Rebalance.MinDeviation = d
	}
	if d, ok := envDecimal("BID_SPREAD"); ok {
		cfg.Quoting.BidSpread = d
	}
	if d, ok := envDecimal("ASK_SPREAD"); ok {
		cfg.Quoting.AskSpread = d
	}
	if d, ok := envDecimal("ORDER_AMOUNT"); ok {
		cfg.Quoting.OrderAmount = d
	}
	if x := envInt("ORDER_REFRESH_SEC"); x > 0 {
		cfg.Quoting.OrderRefreshSec = x
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	var x int
	fmt.Sscanf(v, "%d", &x)
	return x
}

func envBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func envDecimal(key string) (Decimal, bool) {
	v := os.Getenv(key)
	if v == "" {
		return Decimal{}, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return Decimal{}, false
	}
	return Decimal{d}, true
}
