package rebalance

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"priceoracle/internal/exchange"
)

// ExchangeClient is the slice of the exchange API the manager needs.
type ExchangeClient interface {
	Balance(ctx context.Context, asset string) (exchange.BalanceSnapshot, error)
	TickerPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	CreateMarketOrder(ctx context.Context, pair string, side exchange.Side, amount decimal.Decimal) (exchange.Order, error)
}

// Config holds the rebalancing targets. Positivity and ranges are the
// operator's responsibility.
type Config struct {
	BaseAsset    string // asset whose balance is managed, e.g. "mntl"
	TradingPair  string // pair traded to correct it, e.g. "mntl_usdt"
	Target       decimal.Decimal
	MinDeviation decimal.Decimal
}

// Manager runs one evaluation cycle at a time: fresh balance, fresh price,
// decision, submission. It never caches balances and never retries a failed
// submission; the next cycle re-derives everything from whatever state the
// partial submission left behind.
type Manager struct {
	client ExchangeClient
	cfg    Config
	log    logrus.FieldLogger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for cycle outcomes.
func WithManagerLogger(log logrus.FieldLogger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

func NewManager(client ExchangeClient, cfg Config, opts ...ManagerOption) *Manager {
	m := &Manager{client: client, cfg: cfg, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Adjust performs one rebalancing cycle and returns the decision that was
// made. The returned error covers read failures and submission failures;
// in the latter case the decision is still returned so callers can see
// what was attempted.
func (m *Manager) Adjust(ctx context.Context) (Decision, error) {
	snap, err := m.client.Balance(ctx, m.cfg.BaseAsset)
	if err != nil {
		return Decision{}, errors.Wrap(err, "read balance")
	}
	price, err := m.client.TickerPrice(ctx, m.cfg.TradingPair)
	if err != nil {
		return Decision{}, errors.Wrap(err, "read price")
	}

	decision := Evaluate(snap.Usable, m.cfg.Target, price, m.cfg.MinDeviation)

	fields := logrus.Fields{
		"asset":   m.cfg.BaseAsset,
		"current": snap.Usable.String(),
		"target":  m.cfg.Target.String(),
		"price":   price.String(),
	}

	switch decision.Action {
	case ActionBuy:
		m.log.WithFields(fields).WithField("quote_amount", decision.QuoteAmount.String()).Info("buying to close balance gap")
		if _, err := m.client.CreateMarketOrder(ctx, m.cfg.TradingPair, exchange.SideBuyMarket, decision.QuoteAmount); err != nil {
			return decision, errors.Wrap(err, "submit buy order")
		}
	case ActionSell:
		m.log.WithFields(fields).WithField("base_amount", decision.BaseAmount.String()).Info("selling excess balance")
		if _, err := m.client.CreateMarketOrder(ctx, m.cfg.TradingPair, exchange.SideSellMarket, decision.BaseAmount); err != nil {
			return decision, errors.Wrap(err, "submit sell order")
		}
	default:
		m.log.WithFields(fields).Info("balance within dead-band, no action")
	}
	return decision, nil
}
