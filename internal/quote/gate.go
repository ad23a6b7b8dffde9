// Package quote derives bid/ask quotes around an external reference price
// and gates order creation on that price actually being available.
package quote

import "github.com/shopspring/decimal"

// Quote is a pair of prices to place around the reference price.
type Quote struct {
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

// Gate computes quotes from a reference price and refuses to produce any
// when the price is unavailable. There is deliberately no fallback value:
// a cycle without a valid reference price places no orders at all.
type Gate struct {
	BidSpread decimal.Decimal
	AskSpread decimal.Decimal
}

// Compute returns the quote pair for ref, or ok=false when the reference
// price is absent. Prices are not rounded here; tick-size rounding is the
// exchange client's job.
func (g Gate) Compute(ref decimal.Decimal, ok bool) (Quote, bool) {
	if !ok {
		return Quote{}, false
	}
	one := decimal.NewFromInt(1)
	return Quote{
		Buy:  ref.Mul(one.Sub(g.BidSpread)),
		Sell: ref.Mul(one.Add(g.AskSpread)),
	}, true
}
