// Package bucket implements an in-process token bucket rate limiter.
package bucket

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/vnykmshr/flowops/pkg/common/validation"
	"github.com/vnykmshr/flowops/pkg/metrics"
)

const module = "bucket"

// ErrExceedsBurst is returned by WaitN when n tokens can never be available at once.
var ErrExceedsBurst = errors.New("bucket: request exceeds burst capacity")

// Limit is the number of tokens added per second. Inf allows every event.
type Limit float64

// Inf is the infinite rate limit.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Clock provides the current time and timers. It can be mocked for testing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Config holds configuration for a Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens that can be stored.
	Burst int

	// InitialTokens is the number of tokens to start with.
	// If negative, the bucket starts full.
	InitialTokens int

	// Clock defaults to the wall clock.
	Clock Clock

	// Name labels the limiter in metrics.
	Name string

	// Metrics counts decisions when set.
	Metrics *metrics.Registry
}

// Limiter is a token bucket. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limit  Limit
	burst  int
	tokens float64
	last   time.Time
	clock  Clock

	name    string
	metrics *metrics.Registry
}

// New creates a full bucket refilled at rate tokens per second.
func New(rate Limit, burst int) (*Limiter, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst, InitialTokens: -1})
}

// NewWithConfig creates a Limiter from config.
func NewWithConfig(config Config) (*Limiter, error) {
	if err := validation.FirstError(
		validation.ValidateNonNegativeRate(module, "rate", float64(config.Rate)),
		validation.ValidatePositive(module, "burst", config.Burst),
	); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = systemClock{}
	}
	if config.Name == "" {
		config.Name = module
	}

	tokens := float64(config.InitialTokens)
	if config.InitialTokens < 0 || config.InitialTokens > config.Burst {
		tokens = float64(config.Burst)
	}

	return &Limiter{
		limit:   config.Rate,
		burst:   config.Burst,
		tokens:  tokens,
		last:    config.Clock.Now(),
		clock:   config.Clock,
		name:    config.Name,
		metrics: config.Metrics,
	}, nil
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN reports whether n events may happen now, consuming their tokens if so.
func (l *Limiter) AllowN(n int) bool {
	_, ok := l.reserve(n, false)
	if ok {
		l.record("allowed")
	} else {
		l.record("limited")
	}
	return ok
}

// Wait blocks until an event can happen.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.WaitN(ctx, 1)
}

// WaitN blocks until n events can happen. On cancellation the reserved
// tokens are returned to the bucket and ctx.Err() is returned.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	delay, ok := l.reserve(n, true)
	if !ok {
		l.record("limited")
		return ErrExceedsBurst
	}
	if delay <= 0 {
		l.record("allowed")
		return nil
	}

	l.record("waited")
	select {
	case <-l.clock.After(delay):
		return nil
	case <-ctx.Done():
		l.restore(n)
		return ctx.Err()
	}
}

// Tokens returns the number of tokens currently available. It is negative
// while waiters hold reservations.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(l.clock.Now())
	return l.tokens
}

// Limit returns the current rate.
func (l *Limiter) Limit() Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// SetLimit changes the rate. Tokens accrued so far are kept.
func (l *Limiter) SetLimit(limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(l.clock.Now())
	l.limit = limit
}

// reserve takes n tokens. With wait set it may drive the balance negative and
// returns how long the caller must wait for it to recover.
func (l *Limiter) reserve(n int, wait bool) (time.Duration, bool) {
	if n <= 0 {
		return 0, true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit == Inf {
		return 0, true
	}

	l.advance(l.clock.Now())
	if l.tokens >= float64(n) {
		l.tokens -= float64(n)
		return 0, true
	}
	if !wait || l.limit == 0 || n > l.burst {
		return 0, false
	}

	missing := float64(n) - l.tokens
	delay := time.Duration(float64(time.Second) * missing / float64(l.limit))
	l.tokens -= float64(n)
	return delay, true
}

func (l *Limiter) restore(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(l.clock.Now())
	l.tokens = math.Min(l.tokens+float64(n), float64(l.burst))
}

// advance adds the tokens accrued since the last update.
func (l *Limiter) advance(now time.Time) {
	elapsed := now.Sub(l.last)
	if elapsed <= 0 {
		return
	}
	l.last = now
	if l.limit == 0 || l.limit == Inf {
		return
	}
	l.tokens = math.Min(l.tokens+elapsed.Seconds()*float64(l.limit), float64(l.burst))
}

func (l *Limiter) record(result string) {
	if l.metrics == nil {
		return
	}
	l.metrics.RateLimitDecisions.WithLabelValues(module, l.name, result).Inc()
}
