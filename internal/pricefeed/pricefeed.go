// Package pricefeed turns a token symbol into an externally sourced
// reference price: a Resolver maps the symbol to the provider's coin id,
// and an Oracle fetches and caches that coin's price on one specific venue.
package pricefeed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"priceoracle/internal/pricefeed/coingecko"
)

// API is the slice of the provider client the feed consumes.
type API interface {
	CoinsList(ctx context.Context) ([]coingecko.Coin, error)
	CoinTickers(ctx context.Context, coinID string) ([]coingecko.Ticker, error)
}

// Reading is one observed price. Value is always positive; a fetch that
// cannot produce a positive value yields no reading at all.
type Reading struct {
	Value      decimal.Decimal
	ObservedAt time.Time
}
