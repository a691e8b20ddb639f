package stream

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowops/pkg/common/validation"
	"github.com/vnykmshr/flowops/pkg/metrics"
)

const module = "stream"

type config struct {
	concurrency  int
	lookahead    int
	lookaheadSet bool
	name         string
	logger       zerolog.Logger
	metrics      *metrics.Registry
	drainOnClose bool
	limiter      Limiter
}

// Option configures a concurrent operator.
type Option func(*config)

func defaultConfig() config {
	return config{
		concurrency: 1,
		logger:      zerolog.Nop(),
	}
}

// WithConcurrency sets how many transform invocations may run at once.
// It must be at least 1; the default is 1.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithLookahead sets how many settled results may be buffered beyond the
// in-flight ones. It must be non-negative; the default is concurrency-1.
func WithLookahead(n int) Option {
	return func(c *config) {
		c.lookahead = n
		c.lookaheadSet = true
	}
}

// WithName labels the operator in logs and metrics.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger used for lifecycle and failure events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation on reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *config) {
		c.metrics = reg
	}
}

// WithDrainOnClose makes Close wait for in-flight transforms to finish with a
// live context instead of canceling them.
func WithDrainOnClose(drain bool) Option {
	return func(c *config) {
		c.drainOnClose = drain
	}
}

// WithRateLimit makes the producer wait on l before pulling each item, which
// bounds how often transforms start. A limiter error fails the stream at that
// position.
func WithRateLimit(l Limiter) Option {
	return func(c *config) {
		c.limiter = l
	}
}

func buildConfig(op string, opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := validation.ValidatePositive(module, "concurrency", cfg.concurrency); err != nil {
		return cfg, err
	}
	if !cfg.lookaheadSet {
		cfg.lookahead = cfg.concurrency - 1
	}
	if err := validation.ValidateNonNegative(module, "lookahead", cfg.lookahead); err != nil {
		return cfg, err
	}
	if cfg.name == "" {
		cfg.name = op
	}
	return cfg, nil
}

// capacity is the maximum number of queued result slots.
func (c config) capacity() int {
	if c.lookahead > math.MaxInt-c.concurrency {
		return math.MaxInt
	}
	return c.lookahead + c.concurrency
}
