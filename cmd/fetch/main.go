package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"priceoracle/internal/config"
	"priceoracle/internal/httpx"
	"priceoracle/internal/pricefeed"
	"priceoracle/internal/pricefeed/coingecko"
)

// fetch is an operator tool: resolve a token symbol to its provider coin
// id and dump every venue quoting it, optionally picking one venue's
// price the way the bots do.
func main() {
	var symbol string
	var market string
	var timeout int
	var configPath string

	flag.StringVar(&symbol, "symbol", getenv("BASE_TOKEN", "MNTL"), "token symbol to resolve")
	flag.StringVar(&market, "market", getenv("QUOTE_MARKET", ""), "venue identifier to fetch the price from (optional)")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config file (optional)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	opts := []coingecko.ClientOption{coingecko.WithHTTPClient(hc)}
	if cfg.Feed.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.Feed.BaseURL))
	}
	client, err := coingecko.NewClient(cfg.Feed.APIKey, opts...)
	if err != nil {
		logrus.Fatalf("coingecko client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resolver := pricefeed.NewResolver(client)
	id, ok := resolver.Resolve(ctx, symbol)
	if !ok {
		logrus.Fatalf("could not resolve %q to a coin id", symbol)
	}
	fmt.Printf("%s -> %s\n\n", symbol, id)

	tickers, err := client.CoinTickers(ctx, id)
	if err != nil {
		logrus.Fatalf("tickers: %v", err)
	}
	fmt.Printf("%-20s %-12s %-12s %s\n", "MARKET", "BASE", "TARGET", "USD")
	for _, t := range tickers {
		usd := "-"
		if v, ok := t.USD(); ok {
			usd = v.String()
		}
		fmt.Printf("%-20s %-12s %-12s %s\n", t.Market.Identifier, t.Base, t.Target, usd)
	}

	if market != "" {
		oracle := pricefeed.NewOracle(client, id, market)
		price, ok := oracle.GetPrice(ctx)
		if !ok {
			fmt.Printf("\nno usable price on market %q\n", market)
			os.Exit(1)
		}
		fmt.Printf("\nprice on %s: %s USD\n", market, price.String())
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil {
			return x
		}
	}
	return def
}
