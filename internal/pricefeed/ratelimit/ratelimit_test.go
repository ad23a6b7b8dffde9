package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInterval_FirstCallImmediate(t *testing.T) {
	t.Parallel()

	l := &Interval{Every: time.Hour}
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestInterval_SecondCallWaits(t *testing.T) {
	t.Parallel()

	l := &Interval{Every: 50 * time.Millisecond}
	require.NoError(t, l.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestInterval_ContextCancel(t *testing.T) {
	t.Parallel()

	l := &Interval{Every: time.Hour}
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestTokenBucket_BurstThenWait(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(10, 2) // 2 immediate, then ~100ms per token
	require.NoError(t, tb.Wait(context.Background()))
	require.NoError(t, tb.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestTokenBucket_ContextCancel(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(0.001, 1)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}
