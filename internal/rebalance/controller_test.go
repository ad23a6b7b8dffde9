package rebalance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEvaluate_BuyAtExactThreshold(t *testing.T) {
	t.Parallel()

	d := Evaluate(dec("48500"), dec("60000"), dec("1"), dec("11500"))
	require.Equal(t, ActionBuy, d.Action)
	require.True(t, d.QuoteAmount.Equal(dec("11500")), "quote=%s", d.QuoteAmount)
}

func TestEvaluate_NoActionJustInsideDeadBand(t *testing.T) {
	t.Parallel()

	d := Evaluate(dec("48501"), dec("60000"), dec("1"), dec("11500"))
	require.Equal(t, ActionNone, d.Action)
}

func TestEvaluate_BuySizedInQuoteCurrency(t *testing.T) {
	t.Parallel()

	// 20000 base missing at 0.002 quote each
	d := Evaluate(dec("40000"), dec("60000"), dec("0.002"), dec("11500"))
	require.Equal(t, ActionBuy, d.Action)
	require.True(t, d.QuoteAmount.Equal(dec("40")), "quote=%s", d.QuoteAmount)
	require.True(t, d.BaseAmount.IsZero())
}

func TestEvaluate_SellSizedInBase(t *testing.T) {
	t.Parallel()

	d := Evaluate(dec("75000"), dec("60000"), dec("0.002"), dec("11500"))
	require.Equal(t, ActionSell, d.Action)
	require.True(t, d.BaseAmount.Equal(dec("15000")), "base=%s", d.BaseAmount)
	require.True(t, d.QuoteAmount.IsZero())
}

func TestEvaluate_SellAtExactThreshold(t *testing.T) {
	t.Parallel()

	d := Evaluate(dec("71500"), dec("60000"), dec("1"), dec("11500"))
	require.Equal(t, ActionSell, d.Action)
	require.True(t, d.BaseAmount.Equal(dec("11500")))
}

func TestEvaluate_ExactTargetIsNoAction(t *testing.T) {
	t.Parallel()

	d := Evaluate(dec("60000"), dec("60000"), dec("1"), dec("0"))
	require.Equal(t, ActionNone, d.Action)
}

func TestEvaluate_Idempotent(t *testing.T) {
	t.Parallel()

	first := Evaluate(dec("50000"), dec("60000"), dec("0.002"), dec("11500"))
	for i := 0; i < 5; i++ {
		again := Evaluate(dec("50000"), dec("60000"), dec("0.002"), dec("11500"))
		require.Equal(t, first, again)
	}
}
