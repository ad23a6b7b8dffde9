package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"priceoracle/internal/config"
	"priceoracle/internal/exchange"
	"priceoracle/internal/logging"
	"priceoracle/internal/rebalance"
)

// rebalance keeps the configured asset balance near its target by
// submitting market orders through the exchange, with a dead-band to
// avoid churning on small deviations. Runs once by default; -loop keeps
// it running on an interval.
func main() {
	var configPath string
	var loop bool
	var intervalSec int

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.BoolVar(&loop, "loop", false, "keep rebalancing on an interval instead of running once")
	flag.IntVar(&intervalSec, "interval", 60, "seconds between cycles when looping")
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

	client := exchange.NewClient(cfg.Exchange.BaseURL, cfg.Exchange.APIKey,
		exchange.WithLogger(log),
		exchange.WithTimeout(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second),
	)
	manager := rebalance.NewManager(client, rebalance.Config{
		BaseAsset:    cfg.Exchange.BaseAsset,
		TradingPair:  cfg.Exchange.TradingPair,
		Target:       cfg.Rebalance.TargetBalance.Decimal,
		MinDeviation: cfg.Rebalance.MinDeviation.Decimal,
	}, rebalance.WithManagerLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		cycleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := manager.Adjust(cycleCtx); err != nil {
			// no retry here: the next cycle re-reads balances and decides again
			log.WithError(err).Error("rebalance cycle failed")
		}
	}

	runOnce()
	if !loop {
		return
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
