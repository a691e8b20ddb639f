// Package config loads operator settings from YAML files, .env files and the
// environment, and turns them into stream options.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowops/pkg/common/validation"
	"github.com/vnykmshr/flowops/pkg/metrics"
	"github.com/vnykmshr/flowops/pkg/ratelimit/bucket"
	"github.com/vnykmshr/flowops/pkg/streaming/stream"
)

const module = "config"

// DefaultEnvPrefix prefixes environment variables: stream.concurrency is read
// from FLOWOPS_STREAM_CONCURRENCY.
const DefaultEnvPrefix = "FLOWOPS"

// Config is the loaded configuration.
type Config struct {
	Stream  StreamConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// StreamConfig holds settings for a concurrent operator.
type StreamConfig struct {
	Name         string
	Concurrency  int
	Lookahead    int
	LookaheadSet bool
	DrainOnClose bool

	// RateLimit caps transform starts per second. Zero disables limiting.
	RateLimit float64
	// RateBurst is the token bucket capacity when RateLimit is set.
	RateBurst int
}

// LogConfig selects the operator logger.
type LogConfig struct {
	// Level is a zerolog level name. Empty disables logging.
	Level string
	// Format is "json" or "console".
	Format string
}

// MetricsConfig selects Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// Validate checks the stream settings.
func (c *Config) Validate() error {
	if err := validation.ValidatePositive(module, "stream.concurrency", c.Stream.Concurrency); err != nil {
		return err
	}
	if c.Stream.LookaheadSet {
		if err := validation.ValidateNonNegative(module, "stream.lookahead", c.Stream.Lookahead); err != nil {
			return err
		}
	}
	if err := validation.ValidateNonNegativeRate(module, "stream.rate_limit", c.Stream.RateLimit); err != nil {
		return err
	}
	if c.Stream.RateLimit > 0 {
		return validation.ValidatePositive(module, "stream.rate_burst", c.Stream.RateBurst)
	}
	return nil
}

// Logger builds the zerolog logger described by Log, writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	if c.Log.Level == "" {
		return zerolog.Nop()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(c.Log.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// MetricsSettings returns the metrics.Config described by Metrics.
func (c *Config) MetricsSettings() metrics.Config {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = c.Metrics.Enabled
	if c.Metrics.Namespace != "" {
		cfg.Namespace = c.Metrics.Namespace
	}
	return cfg
}

// StreamOptions converts the configuration to stream options. reg is attached
// only when metrics are enabled; the logger writes to stderr. A positive
// RateLimit adds a token bucket shared by every operator built from the result.
func (c *Config) StreamOptions(reg *metrics.Registry) ([]stream.Option, error) {
	opts := []stream.Option{
		stream.WithConcurrency(c.Stream.Concurrency),
		stream.WithDrainOnClose(c.Stream.DrainOnClose),
		stream.WithLogger(c.Logger(nil)),
	}
	if c.Stream.LookaheadSet {
		opts = append(opts, stream.WithLookahead(c.Stream.Lookahead))
	}
	if c.Stream.Name != "" {
		opts = append(opts, stream.WithName(c.Stream.Name))
	}
	if c.Metrics.Enabled && reg != nil {
		opts = append(opts, stream.WithMetrics(reg))
	}
	if c.Stream.RateLimit > 0 {
		bucketConfig := bucket.Config{
			Rate:          bucket.Limit(c.Stream.RateLimit),
			Burst:         c.Stream.RateBurst,
			InitialTokens: -1,
			Name:          c.Stream.Name,
		}
		if c.Metrics.Enabled {
			bucketConfig.Metrics = reg
		}
		limiter, err := bucket.NewWithConfig(bucketConfig)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stream.WithRateLimit(limiter))
	}
	return opts, nil
}
