// Package ratelimit counts requests per identity and action in a shared
// fixed-window counter store.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
)

// Counter is an external store with an atomic increment-with-expiry.
type Counter interface {
	IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Config describes one limit
type Config struct {
	Window      time.Duration
	MaxRequests int
	// KeyFunc overrides PartitionKey + Action when set.
	KeyFunc func(r *http.Request) string
	// OnLimitExceeded runs on its own goroutine for every rejected request.
	OnLimitExceeded func(key string, d Decision)
}

// Decision is the outcome of one check
type Decision struct {
	Key       string
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// FailedOpen is set when the counter store was unavailable and the
	// request was let through without being counted.
	FailedOpen bool
}

// StoreError wraps a counter failure so callers can tell it apart
type StoreError struct {
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("rate limit store unavailable for %s: %v", e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Limiter applies a Config against a Counter
type Limiter struct {
	counter Counter
	cfg     Config
	now     func() time.Time
}

// New creates a limiter. A nil counter behaves like an unreachable store.
func New(counter Counter, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 1
	}
	return &Limiter{counter: counter, cfg: cfg, now: time.Now}
}

// Config returns the effective configuration
func (l *Limiter) Config() Config {
	return l.cfg
}

// Key returns the counter key for r
func (l *Limiter) Key(r *http.Request) string {
	if l.cfg.KeyFunc != nil {
		return "ratelimit:" + l.cfg.KeyFunc(r)
	}
	return fmt.Sprintf("ratelimit:%s:%s", PartitionKey(r), Action(r.URL.Path))
}

// Evaluate counts the request and returns the strict decision, or a
// *StoreError when the counter could not be incremented.
func (l *Limiter) Evaluate(ctx context.Context, r *http.Request) (Decision, error) {
	key := l.Key(r)
	if l.counter == nil {
		return Decision{Key: key}, &StoreError{Key: key, Err: fmt.Errorf("no counter store configured")}
	}

	count, err := l.counter.IncrWithExpiry(ctx, key, l.cfg.Window)
	if err != nil {
		return Decision{Key: key}, &StoreError{Key: key, Err: err}
	}

	max := l.cfg.MaxRequests
	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Key:       key,
		Allowed:   count <= int64(max),
		Limit:     max,
		Remaining: remaining,
		ResetAt:   l.now().Add(l.cfg.Window),
	}, nil
}

// Check is Evaluate with the availability policy applied: a store failure
// allows the request and reports the full quota as remaining.
func (l *Limiter) Check(ctx context.Context, r *http.Request) Decision {
	d, err := l.Evaluate(ctx, r)
	if err != nil {
		logger.Log.Warn("Rate limit store unavailable, allowing request",
			zap.String("key", d.Key),
			zap.Error(err),
		)
		return Decision{
			Key:        d.Key,
			Allowed:    true,
			Limit:      l.cfg.MaxRequests,
			Remaining:  l.cfg.MaxRequests,
			ResetAt:    l.now().Add(l.cfg.Window),
			FailedOpen: true,
		}
	}

	if !d.Allowed && l.cfg.OnLimitExceeded != nil {
		go l.notifyExceeded(d)
	}
	return d
}

func (l *Limiter) notifyExceeded(d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Error("Rate limit callback panicked",
				zap.String("key", d.Key),
				zap.Any("panic", rec),
			)
		}
	}()
	l.cfg.OnLimitExceeded(d.Key, d)
}
