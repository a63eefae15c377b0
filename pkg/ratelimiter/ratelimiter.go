package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Rule limits a key to Limit hits per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result describes the state of a key after a hit.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the hit fits inside the window.
func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the window resets; zero when
// the hit was allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store counts hits per key.
type Store interface {
	// Hit increments the counter for key, starting a new window of the given
	// length when none is running, and returns the count and window end.
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Limiter applies a Rule to a Store under a key namespace.
type Limiter struct {
	store  Store
	rule   Rule
	prefix string
}

// New creates a limiter. The prefix isolates counters of different routes
// sharing one store.
func New(store Store, prefix string, rule Rule) (*Limiter, error) {
	if rule.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, rule.Limit)
	}
	if rule.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, rule.Window)
	}
	return &Limiter{store: store, rule: rule, prefix: prefix}, nil
}

// Allow records a hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Hit(ctx, l.prefix+":"+key, l.rule.Window)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Limit:     l.rule.Limit,
		Remaining: l.rule.Limit - count,
		ResetAt:   resetAt,
	}, nil
}
