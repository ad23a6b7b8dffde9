package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"priceoracle/internal/config"
	"priceoracle/internal/exchange"
	"priceoracle/internal/httpx"
	"priceoracle/internal/logging"
	"priceoracle/internal/pricefeed"
	"priceoracle/internal/pricefeed/coingecko"
	"priceoracle/internal/pricefeed/ratelimit"
	"priceoracle/internal/quote"
)

// quoter places a bid/ask pair around the external reference price every
// refresh interval. When no valid reference price is available for a tick,
// it cancels its orders and places nothing rather than quoting off a stale
// or made-up value.
func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Setup(logging.Config{}).Fatalf("config: %v", err)
	}
	log := logging.Setup(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	opts := []coingecko.ClientOption{coingecko.WithHTTPClient(hc)}
	if cfg.Feed.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.Feed.BaseURL))
	}
	client, err := coingecko.NewClient(cfg.Feed.APIKey, opts...)
	if err != nil {
		log.Fatalf("coingecko client: %v", err)
	}

	limiter := feedLimiter(cfg.Feed)
	resolver := pricefeed.NewResolver(client,
		pricefeed.WithResolverLimiter(limiter),
		pricefeed.WithResolverLogger(log),
	)

	ex := exchange.NewClient(cfg.Exchange.BaseURL, cfg.Exchange.APIKey,
		exchange.WithLogger(log),
		exchange.WithTimeout(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second),
	)
	gate := quote.Gate{
		BidSpread: cfg.Quoting.BidSpread.Decimal,
		AskSpread: cfg.Quoting.AskSpread.Decimal,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"token":  cfg.Feed.BaseToken,
		"market": cfg.Feed.QuoteMarket,
		"pair":   cfg.Exchange.TradingPair,
	}).Info("quoter starting")

	// the oracle is created once the symbol resolves; until then every
	// tick retries resolution
	var oracle *pricefeed.Oracle

	refresh := time.Duration(cfg.Quoting.OrderRefreshSec) * time.Second
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		tick(ctx, cfg, log, client, resolver, limiter, &oracle, gate, ex)
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
		}
	}
}

func tick(
	ctx context.Context,
	cfg config.Config,
	log logrus.FieldLogger,
	client *coingecko.Client,
	resolver *pricefeed.Resolver,
	limiter ratelimit.Limiter,
	oracle **pricefeed.Oracle,
	gate quote.Gate,
	ex orderBook,
) {
	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var q quote.Quote
	ok := false
	if ensureOracle(tickCtx, cfg, log, client, resolver, limiter, oracle) {
		price, got := (*oracle).GetPrice(tickCtx)
		q, ok = gate.Compute(price, got)
	}
	placeQuotes(tickCtx, log, ex, cfg.Exchange.TradingPair, cfg.Quoting.OrderAmount.Decimal, q, ok)
}

func ensureOracle(
	ctx context.Context,
	cfg config.Config,
	log logrus.FieldLogger,
	client *coingecko.Client,
	resolver *pricefeed.Resolver,
	limiter ratelimit.Limiter,
	oracle **pricefeed.Oracle,
) bool {
	if *oracle != nil {
		return true
	}
	id, ok := resolver.Resolve(ctx, cfg.Feed.BaseToken)
	if !ok {
		log.Warn("coin id unavailable")
		return false
	}
	opts := []pricefeed.OracleOption{
		pricefeed.WithTTL(time.Duration(cfg.Feed.RefreshSec) * time.Second),
		pricefeed.WithOracleLimiter(limiter),
		pricefeed.WithOracleLogger(log),
	}
	if cfg.Feed.StaleFallback {
		opts = append(opts, pricefeed.WithStaleFallback())
	}
	*oracle = pricefeed.NewOracle(client, id, cfg.Feed.QuoteMarket, opts...)
	return true
}

// orderBook is what a tick needs from the exchange.
type orderBook interface {
	CancelAllOrders(ctx context.Context, pair string) error
	CreateLimitOrder(ctx context.Context, pair string, side exchange.Side, amount, price decimal.Decimal) (exchange.Order, error)
}

// placeQuotes refreshes the book for one tick. Open orders are always
// cancelled first, so a tick without a valid reference price leaves
// nothing resting at prices derived from an old reading.
func placeQuotes(ctx context.Context, log logrus.FieldLogger, ex orderBook, pair string, amount decimal.Decimal, q quote.Quote, ok bool) {
	if err := ex.CancelAllOrders(ctx, pair); err != nil {
		log.WithError(err).Warn("canceling open orders failed")
	}
	if !ok {
		log.Warn("no valid reference price, skipping order placement")
		return
	}
	if _, err := ex.CreateLimitOrder(ctx, pair, exchange.SideBuy, amount, q.Buy); err != nil {
		log.WithError(err).Error("placing bid failed")
	}
	if _, err := ex.CreateLimitOrder(ctx, pair, exchange.SideSell, amount, q.Sell); err != nil {
		log.WithError(err).Error("placing ask failed")
	}
}

// feedLimiter picks a limiter the same way the provider wiring does:
// prefer a token bucket with burst when RPM is set, else a minimum
// interval, else none.
func feedLimiter(cfg config.Feed) ratelimit.Limiter {
	if cfg.MaxRequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		return ratelimit.NewTokenBucket(float64(cfg.MaxRequestsPerMinute)/60.0, burst)
	}
	if cfg.MinRequestIntervalSec > 0 {
		return &ratelimit.Interval{Every: time.Duration(cfg.MinRequestIntervalSec) * time.Second}
	}
	return nil
}
