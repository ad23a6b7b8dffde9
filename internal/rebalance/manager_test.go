package rebalance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"priceoracle/internal/exchange"
)

type fakeExchange struct {
	usable decimal.Decimal
	price  decimal.Decimal

	balanceErr error
	priceErr   error
	orderErr   error

	orders []exchange.Order
}

func (f *fakeExchange) Balance(_ context.Context, asset string) (exchange.BalanceSnapshot, error) {
	if f.balanceErr != nil {
		return exchange.BalanceSnapshot{}, f.balanceErr
	}
	return exchange.BalanceSnapshot{Asset: asset, Usable: f.usable, Total: f.usable}, nil
}

func (f *fakeExchange) TickerPrice(context.Context, string) (decimal.Decimal, error) {
	return f.price, f.priceErr
}

func (f *fakeExchange) CreateMarketOrder(_ context.Context, pair string, side exchange.Side, amount decimal.Decimal) (exchange.Order, error) {
	if f.orderErr != nil {
		return exchange.Order{}, f.orderErr
	}
	order := exchange.Order{Symbol: pair, Side: side, Amount: amount, OrderID: "ok"}
	f.orders = append(f.orders, order)
	return order, nil
}

func testConfig() Config {
	return Config{
		BaseAsset:    "mntl",
		TradingPair:  "mntl_usdt",
		Target:       dec("60000"),
		MinDeviation: dec("11500"),
	}
}

func TestAdjust_BuysWhenBelowTarget(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{usable: dec("40000"), price: dec("0.002")}
	m := NewManager(fe, testConfig())

	d, err := m.Adjust(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActionBuy, d.Action)

	require.Len(t, fe.orders, 1)
	require.Equal(t, exchange.SideBuyMarket, fe.orders[0].Side)
	require.True(t, fe.orders[0].Amount.Equal(dec("40")), "buy amount in quote currency, got %s", fe.orders[0].Amount)
}

func TestAdjust_SellsWhenAboveTarget(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{usable: dec("80000"), price: dec("0.002")}
	m := NewManager(fe, testConfig())

	d, err := m.Adjust(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActionSell, d.Action)

	require.Len(t, fe.orders, 1)
	require.Equal(t, exchange.SideSellMarket, fe.orders[0].Side)
	require.True(t, fe.orders[0].Amount.Equal(dec("20000")), "sell amount in base, got %s", fe.orders[0].Amount)
}

func TestAdjust_DeadBandSubmitsNothing(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{usable: dec("59000"), price: dec("0.002")}
	m := NewManager(fe, testConfig())

	d, err := m.Adjust(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActionNone, d.Action)
	require.Empty(t, fe.orders)
}

func TestAdjust_BalanceReadFailure(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{balanceErr: errors.New("api down")}
	m := NewManager(fe, testConfig())

	_, err := m.Adjust(context.Background())
	require.ErrorContains(t, err, "read balance")
	require.Empty(t, fe.orders)
}

func TestAdjust_PriceReadFailure(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{usable: dec("40000"), priceErr: errors.New("api down")}
	m := NewManager(fe, testConfig())

	_, err := m.Adjust(context.Background())
	require.ErrorContains(t, err, "read price")
	require.Empty(t, fe.orders)
}

func TestAdjust_SubmissionFailureReturnsDecision(t *testing.T) {
	t.Parallel()

	fe := &fakeExchange{usable: dec("40000"), price: dec("0.002"), orderErr: errors.New("rejected")}
	m := NewManager(fe, testConfig())

	d, err := m.Adjust(context.Background())
	require.ErrorContains(t, err, "submit buy order")
	require.Equal(t, ActionBuy, d.Action, "failed submission still reports what was attempted")
}
