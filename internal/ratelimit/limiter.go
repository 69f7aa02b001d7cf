// Package ratelimit implements a fixed-window request limiter over a shared counter store.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Counter is the subset of the counter store the limiter needs. Get returns
// nil for a missing key.
type Counter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Limiter allows at most limit requests per key in each window. The window
// starts with the first request and is never extended.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
}

// New creates a Limiter.
func New(counter Counter, limit int, window time.Duration) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window}
}

// Allow reports whether one more request for key fits in the current window.
// When the counter store fails it returns true together with the error, so
// callers that ignore the error fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	raw, err := l.counter.Get(ctx, key)
	if err != nil {
		return true, fmt.Errorf("read counter: %w", err)
	}

	if raw == nil {
		if err := l.counter.Set(ctx, key, []byte("1"), l.window); err != nil {
			return true, fmt.Errorf("start window: %w", err)
		}
		return true, nil
	}

	count, err := strconv.Atoi(string(raw))
	if err != nil {
		return true, fmt.Errorf("parse counter %q: %w", raw, err)
	}
	if count >= l.limit {
		return false, nil
	}

	n, err := l.counter.Incr(ctx, key)
	if err != nil {
		return true, fmt.Errorf("increment counter: %w", err)
	}
	if n == 1 {
		// The window expired between Get and Incr and Incr recreated the key
		// without a TTL.
		if err := l.counter.Set(ctx, key, []byte("1"), l.window); err != nil {
			return true, fmt.Errorf("restart window: %w", err)
		}
	}
	return true, nil
}
