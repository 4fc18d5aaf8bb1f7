// # internal/shared/util/limiter.go
package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket for outbound API calls. It can be tightened
// from the quota a server reports. A nil *Limiter never blocks.
type Limiter struct {
	inner *rate.Limiter

	mu         sync.Mutex
	configured rate.Limit
}

// NewLimiter returns nil when r <= 0, which disables limiting.
func NewLimiter(r float64, b int) *Limiter {
	if r <= 0 {
		return nil
	}
	return &Limiter{
		inner:      rate.NewLimiter(rate.Limit(r), max(b, 1)),
		configured: rate.Limit(r),
	}
}

func (l *Limiter) Allow(n int) bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or ctx is done, and reports how
// long it blocked.
func (l *Limiter) Wait(ctx context.Context, n int) (time.Duration, error) {
	if l == nil {
		return 0, ctx.Err()
	}
	start := time.Now()
	err := l.inner.WaitN(ctx, n)
	return time.Since(start), err
}

// Observe spreads the remaining server quota evenly until reset. The rate
// never rises above the configured one.
func (l *Limiter) Observe(remaining int, reset time.Time) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	window := time.Until(reset)
	if window <= 0 {
		l.inner.SetLimit(l.configured)
		return
	}
	quota := rate.Limit(float64(max(remaining, 0)) / window.Seconds())
	l.inner.SetLimit(min(quota, l.configured))
}

// Limit is the current rate in tokens per second.
func (l *Limiter) Limit() float64 {
	if l == nil {
		return 0
	}
	return float64(l.inner.Limit())
}
