package pricefeed

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"priceoracle/internal/pricefeed/ratelimit"
)

// Resolver maps token symbols to provider coin ids via the coin catalog.
// Successful resolutions are cached for the lifetime of the Resolver;
// failures are never cached, so a transient provider outage or a symbol
// typo does not get poisoned permanently.
type Resolver struct {
	api     API
	limiter ratelimit.Limiter
	log     logrus.FieldLogger

	mu  sync.Mutex
	ids map[string]string // key: lower-cased symbol
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLimiter gates catalog fetches with the given limiter.
func WithResolverLimiter(l ratelimit.Limiter) ResolverOption {
	return func(r *Resolver) { r.limiter = l }
}

// WithResolverLogger sets the logger used for resolution failures.
func WithResolverLogger(log logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

func NewResolver(api API, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		api: api,
		log: logrus.StandardLogger(),
		ids: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the provider coin id for symbol. Matching is
// case-insensitive on the provider's symbol field and the first catalog
// match wins (the provider's listing order is authoritative). The second
// return is false when the symbol cannot be resolved in this call.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(symbol))
	if key == "" {
		return "", false
	}

	r.mu.Lock()
	id, ok := r.ids[key]
	r.mu.Unlock()
	if ok {
		return id, true
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.log.WithError(err).WithField("symbol", symbol).Warn("coin id resolution canceled")
			return "", false
		}
	}

	coins, err := r.api.CoinsList(ctx)
	if err != nil {
		r.log.WithError(err).WithField("symbol", symbol).Error("fetching coin catalog failed")
		return "", false
	}

	for _, coin := range coins {
		if strings.EqualFold(coin.Symbol, key) {
			r.mu.Lock()
			r.ids[key] = coin.ID
			r.mu.Unlock()
			return coin.ID, true
		}
	}

	r.log.WithField("symbol", symbol).Error("symbol not found in coin catalog")
	return "", false
}
