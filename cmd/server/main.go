package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"priceoracle/internal/config"
	"priceoracle/internal/httpx"
	"priceoracle/internal/logging"
	"priceoracle/internal/pricefeed"
	"priceoracle/internal/pricefeed/coingecko"
	"priceoracle/internal/pricefeed/ratelimit"
)

// priceSource is what the /price handler needs from the oracle.
type priceSource interface {
	GetPrice(ctx context.Context) (decimal.Decimal, bool)
	LastReading() (pricefeed.Reading, bool)
}

type priceResponse struct {
	Token      string    `json:"token"`
	CoinID     string    `json:"coin_id"`
	Market     string    `json:"market"`
	Price      string    `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

func main() {
	_ = godotenv.Load()
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
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

	var limiter ratelimit.Limiter
	if cfg.Feed.MaxRequestsPerMinute > 0 {
		burst := cfg.Feed.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = ratelimit.NewTokenBucket(float64(cfg.Feed.MaxRequestsPerMinute)/60.0, burst)
	} else if cfg.Feed.MinRequestIntervalSec > 0 {
		limiter = &ratelimit.Interval{Every: time.Duration(cfg.Feed.MinRequestIntervalSec) * time.Second}
	}

	resolver := pricefeed.NewResolver(client,
		pricefeed.WithResolverLimiter(limiter),
		pricefeed.WithResolverLogger(log),
	)

	// the oracle needs a resolved coin id, which takes a network call;
	// build it on first use so startup never blocks on the feed
	var (
		mu     sync.Mutex
		oracle *pricefeed.Oracle
		coinID string
	)
	getOracle := func(ctx context.Context) (*pricefeed.Oracle, string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if oracle != nil {
			return oracle, coinID, true
		}
		id, ok := resolver.Resolve(ctx, cfg.Feed.BaseToken)
		if !ok {
			return nil, "", false
		}
		oopts := []pricefeed.OracleOption{
			pricefeed.WithTTL(time.Duration(cfg.Feed.RefreshSec) * time.Second),
			pricefeed.WithOracleLimiter(limiter),
			pricefeed.WithOracleLogger(log),
		}
		if cfg.Feed.StaleFallback {
			oopts = append(oopts, pricefeed.WithStaleFallback())
		}
		coinID = id
		oracle = pricefeed.NewOracle(client, id, cfg.Feed.QuoteMarket, oopts...)
		return oracle, coinID, true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		src, id, ok := getOracle(ctx)
		if !ok {
			http.Error(w, "coin id unresolved", http.StatusServiceUnavailable)
			return
		}
		writePrice(w, ctx, src, cfg.Feed.BaseToken, id, cfg.Feed.QuoteMarket)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(recoverPanic(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func writePrice(w http.ResponseWriter, ctx context.Context, src priceSource, token, coinID, market string) {
	price, ok := src.GetPrice(ctx)
	if !ok {
		http.Error(w, "no valid reference price", http.StatusServiceUnavailable)
		return
	}
	observed := time.Now().UTC()
	if last, ok := src.LastReading(); ok {
		observed = last.ObservedAt
	}
	resp := priceResponse{
		Token:      token,
		CoinID:     coinID,
		Market:     market,
		Price:      price.String(),
		ObservedAt: observed,
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
