// Package exchange is a thin client for the LBank-style "supplement" REST
// API: balance reads, pair prices and order submission. Request signing is
// pluggable; the bot treats it as an opaque capability supplied by the
// operator.
package exchange

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Side of a market or limit order, in the exchange's own vocabulary.
type Side string

const (
	SideBuyMarket  Side = "buy_market"
	SideSellMarket Side = "sell_market"
	SideBuy        Side = "buy"
	SideSell       Side = "sell"
)

// BalanceSnapshot is one asset's balance at read time. It is read fresh on
// every use and never cached in this layer.
type BalanceSnapshot struct {
	Asset  string
	Usable decimal.Decimal
	Total  decimal.Decimal
	Frozen decimal.Decimal
}

// Order is the exchange's acknowledgement of a submitted order.
type Order struct {
	OrderID   string
	CustomID  string
	Symbol    string
	Side      Side
	Amount    decimal.Decimal
	Price     decimal.Decimal // zero for market orders
	CreatedAt time.Time
}

// Signer signs the request parameters of an authenticated call and returns
// the signature string to attach. The bot never inspects or verifies it.
type Signer func(params url.Values) string
