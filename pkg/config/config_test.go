package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/metrics"
	"github.com/vnykmshr/flowops/pkg/streaming/stream"
)

const sampleYAML = `
stream:
  name: enrich
  concurrency: 8
  lookahead: 16
  drain_on_close: true
  rate_limit: 100
  rate_burst: 10
log:
  level: debug
  format: console
metrics:
  enabled: true
  namespace: myapp
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithReader(strings.NewReader(""), "yaml"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Stream.Name)
	assert.Equal(t, 1, cfg.Stream.Concurrency)
	assert.False(t, cfg.Stream.LookaheadSet)
	assert.False(t, cfg.Stream.DrainOnClose)
	assert.Zero(t, cfg.Stream.RateLimit)
	assert.Equal(t, 1, cfg.Stream.RateBurst)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "", cfg.Log.Level)
}

func TestLoad_Reader(t *testing.T) {
	cfg, err := Load(WithReader(strings.NewReader(sampleYAML), "yaml"))
	require.NoError(t, err)

	assert.Equal(t, StreamConfig{
		Name:         "enrich",
		Concurrency:  8,
		Lookahead:    16,
		LookaheadSet: true,
		DrainOnClose: true,
		RateLimit:    100,
		RateBurst:    10,
	}, cfg.Stream)
	assert.Equal(t, LogConfig{Level: "debug", Format: "console"}, cfg.Log)
	assert.Equal(t, MetricsConfig{Enabled: true, Namespace: "myapp"}, cfg.Metrics)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Stream.Concurrency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("FLOWOPS_STREAM_CONCURRENCY", "12")
	t.Setenv("FLOWOPS_STREAM_DRAIN_ON_CLOSE", "false")

	cfg, err := Load(WithReader(strings.NewReader(sampleYAML), "yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Stream.Concurrency)
	assert.False(t, cfg.Stream.DrainOnClose)
	assert.Equal(t, 16, cfg.Stream.Lookahead)
}

func TestLoad_EnvPrefix(t *testing.T) {
	t.Setenv("INGEST_STREAM_LOOKAHEAD", "3")

	cfg, err := Load(WithEnvPrefix("INGEST"))
	require.NoError(t, err)
	assert.True(t, cfg.Stream.LookaheadSet)
	assert.Equal(t, 3, cfg.Stream.Lookahead)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "FLOWOPS_STREAM_LOOKAHEAD=9\nFLOWOPS_STREAM_NAME=from-dotenv\nFLOWOPS_STREAM_CONCURRENCY=2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// The real environment wins over the .env file.
	t.Setenv("FLOWOPS_STREAM_CONCURRENCY", "5")

	cfg, err := Load(WithEnvFile(path))
	require.NoError(t, err)
	assert.True(t, cfg.Stream.LookaheadSet)
	assert.Equal(t, 9, cfg.Stream.Lookahead)
	assert.Equal(t, "from-dotenv", cfg.Stream.Name)
	assert.Equal(t, 5, cfg.Stream.Concurrency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero concurrency", "stream:\n  concurrency: 0\n"},
		{"negative lookahead", "stream:\n  lookahead: -2\n"},
		{"negative rate limit", "stream:\n  rate_limit: -1\n"},
		{"zero burst", "stream:\n  rate_limit: 5\n  rate_burst: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithReader(strings.NewReader(tt.yaml), "yaml"))
			require.Error(t, err)
			assert.True(t, gferrors.IsValidationError(err))
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}
	logger := cfg.Logger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	(&Config{}).Logger(&buf).Error().Msg("nop")
	assert.Empty(t, buf.String())
}

func TestConfig_MetricsSettings(t *testing.T) {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true, Namespace: "myapp"}}
	settings := cfg.MetricsSettings()
	assert.True(t, settings.Enabled)
	assert.Equal(t, "myapp", settings.Namespace)

	assert.Equal(t, metrics.DefaultNamespace, (&Config{}).MetricsSettings().Namespace)
}

func TestConfig_StreamOptions(t *testing.T) {
	cfg, err := Load(WithReader(strings.NewReader(sampleYAML), "yaml"))
	require.NoError(t, err)
	cfg.Log.Level = ""

	settings := cfg.MetricsSettings()
	settings.Registry = prometheus.NewRegistry()
	reg := metrics.Resolve(settings)
	require.NotNil(t, reg)

	opts, err := cfg.StreamOptions(reg)
	require.NoError(t, err)

	ctx := context.Background()
	out, err := stream.Map(ctx, stream.FromSlice([]int{1, 2, 3}), func(_ context.Context, x int) (int, error) {
		return x + 1, nil
	}, opts...)
	require.NoError(t, err)

	got, err := stream.ToSlice(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, got)
}

func TestConfig_StreamOptionsInvalid(t *testing.T) {
	cfg := &Config{Stream: StreamConfig{Concurrency: 0}}
	opts, err := cfg.StreamOptions(nil)
	require.NoError(t, err)
	_, err = stream.Map(context.Background(), stream.FromSlice([]int{1}), func(_ context.Context, x int) (int, error) {
		return x, nil
	}, opts...)
	assert.True(t, gferrors.IsValidationError(err))

	cfg = &Config{Stream: StreamConfig{Concurrency: 1, RateLimit: 5}}
	_, err = cfg.StreamOptions(nil)
	assert.True(t, gferrors.IsValidationError(err))
}
