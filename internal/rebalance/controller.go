// Package rebalance keeps an asset balance near a target by submitting
// market orders sized to close the gap, with a dead-band so noise-level
// balance drift never triggers a trade.
package rebalance

import "github.com/shopspring/decimal"

// Action is the kind of corrective step to take.
type Action int

const (
	ActionNone Action = iota
	ActionBuy
	ActionSell
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	default:
		return "none"
	}
}

// Decision is the outcome of one evaluation. For a buy the amount is
// denominated in the quote currency (enough to purchase the missing base);
// for a sell it is the excess base amount itself. A decision is derived
// fresh every evaluation and never persisted.
type Decision struct {
	Action      Action
	BaseAmount  decimal.Decimal // set for sells
	QuoteAmount decimal.Decimal // set for buys
}

// Evaluate compares the current balance to the target and decides what, if
// anything, to submit. Deviations below minDeviation are suppressed; the
// threshold itself is inclusive, so a deviation of exactly minDeviation
// acts. Evaluate is stateless: identical inputs always yield the identical
// decision.
func Evaluate(current, target, price, minDeviation decimal.Decimal) Decision {
	if diff := target.Sub(current); diff.Sign() > 0 && diff.GreaterThanOrEqual(minDeviation) {
		return Decision{
			Action:      ActionBuy,
			QuoteAmount: diff.Mul(price),
		}
	}
	if diff := current.Sub(target); diff.Sign() > 0 && diff.GreaterThanOrEqual(minDeviation) {
		return Decision{
			Action:     ActionSell,
			BaseAmount: diff,
		}
	}
	return Decision{Action: ActionNone}
}
