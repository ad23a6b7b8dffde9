package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound provider calls. Wait blocks until a call is
// allowed or the context is canceled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval enforces a minimum time between calls. Concurrent callers wait
// until the interval has elapsed since the last permitted call.
type Interval struct {
	Every time.Duration

	mu   sync.Mutex
	last time.Time
}

func (i *Interval) Wait(ctx context.Context) error {
	if i.Every <= 0 {
		return nil
	}
	i.mu.Lock()
	wait := time.Until(i.last.Add(i.Every))
	if wait <= 0 {
		i.last = time.Now()
		i.mu.Unlock()
		return nil
	}
	// reserve the slot before sleeping so concurrent callers queue up
	i.last = i.last.Add(i.Every)
	i.mu.Unlock()

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
