package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"priceoracle/internal/pricefeed/ratelimit"
)

// DefaultTTL is how long a fetched price stays fresh unless configured
// otherwise.
const DefaultTTL = 30 * time.Second

// refreshTimeout bounds a single provider fetch. The fetch runs detached
// from the caller that triggered it, so it needs its own deadline.
const refreshTimeout = 15 * time.Second

// Oracle serves the latest price of one coin on one specific venue,
// fetching through the provider's ticker listing and caching the result
// for a TTL. A failed refresh never clobbers the previous reading; it
// just makes this call return absent. Callers that prefer a recent stale
// value over skipping a cycle can opt in with WithStaleFallback.
type Oracle struct {
	api           API
	coinID        string
	market        string
	ttl           time.Duration
	staleFallback bool
	limiter       ratelimit.Limiter
	log           logrus.FieldLogger
	now           func() time.Time

	mu   sync.RWMutex
	last *Reading // replaced wholesale on refresh, never mutated in place

	sf singleflight.Group
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) OracleOption {
	return func(o *Oracle) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithStaleFallback makes GetPrice fall back to the previous reading when
// a refresh fails. Off by default: the strict policy is that a failed
// fetch means "do not trade this cycle".
func WithStaleFallback() OracleOption {
	return func(o *Oracle) { o.staleFallback = true }
}

// WithOracleLimiter gates ticker fetches with the given limiter.
func WithOracleLimiter(l ratelimit.Limiter) OracleOption {
	return func(o *Oracle) { o.limiter = l }
}

// WithOracleLogger sets the logger used for fetch outcomes.
func WithOracleLogger(log logrus.FieldLogger) OracleOption {
	return func(o *Oracle) { o.log = log }
}

// NewOracle creates an oracle for coinID quoted on the venue identified by
// market. Market matching is exact string equality against the provider's
// venue identifier; there is no normalization and no default venue.
func NewOracle(api API, coinID, market string, opts ...OracleOption) *Oracle {
	o := &Oracle{
		api:    api,
		coinID: coinID,
		market: market,
		ttl:    DefaultTTL,
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ready reports whether a price has ever been cached.
func (o *Oracle) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last != nil
}

// LastReading returns the most recent reading regardless of freshness.
func (o *Oracle) LastReading() (Reading, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return Reading{}, false
	}
	return *o.last, true
}

// GetPrice returns the venue price in USD. A fresh cached reading is
// served without network I/O, which bounds the provider call rate no
// matter how often the host loop polls. On refresh failure the previous
// reading is kept but, unless stale fallback is enabled, this call
// returns absent and the caller is expected to skip its trading action.
func (o *Oracle) GetPrice(ctx context.Context) (decimal.Decimal, bool) {
	now := o.now()

	o.mu.RLock()
	last := o.last
	o.mu.RUnlock()

	if last != nil && now.Sub(last.ObservedAt) < o.ttl {
		return last.Value, true
	}

	value, err := o.refresh(ctx)
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"coin":   o.coinID,
			"market": o.market,
		}).Error("price refresh failed")
		if o.staleFallback && last != nil {
			return last.Value, true
		}
		return decimal.Decimal{}, false
	}
	return value, true
}

// refresh coalesces concurrent refreshes into a single provider call.
// The fetch runs on a context detached from the triggering caller, so
// one caller's cancellation cannot fail the coalesced waiters; each
// caller still honors its own context while waiting for the result.
func (o *Oracle) refresh(ctx context.Context) (decimal.Decimal, error) {
	ch := o.sf.DoChan("refresh", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		price, err := o.fetch(fctx)
		if err != nil {
			return nil, err
		}
		return price, nil
	})
	select {
	case <-ctx.Done():
		return decimal.Decimal{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return decimal.Decimal{}, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

// fetch pulls the ticker listing and swaps in a new reading.
func (o *Oracle) fetch(ctx context.Context) (decimal.Decimal, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return decimal.Decimal{}, err
		}
	}

	tickers, err := o.api.CoinTickers(ctx, o.coinID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for _, t := range tickers {
		if t.Market.Identifier != o.market {
			continue
		}
		// first entry for the venue wins
		price, ok := t.USD()
		if !ok || price.Sign() <= 0 {
			return decimal.Decimal{}, fmt.Errorf("no usable usd price on market %q", o.market)
		}
		reading := &Reading{Value: price, ObservedAt: o.now()}
		o.mu.Lock()
		o.last = reading
		o.mu.Unlock()
		o.log.WithFields(logrus.Fields{
			"coin":   o.coinID,
			"market": o.market,
			"price":  price.String(),
		}).Info("fetched new reference price")
		return price, nil
	}
	return decimal.Decimal{}, fmt.Errorf("market %q not found in ticker listing", o.market)
}
