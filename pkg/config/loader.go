package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// keys lists every configuration key with its default.
var keys = map[string]interface{}{
	"stream.name":           "",
	"stream.concurrency":    1,
	"stream.lookahead":      0,
	"stream.drain_on_close": false,
	"stream.rate_limit":     0.0,
	"stream.rate_burst":     1,
	"log.level":             "",
	"log.format":            "json",
	"metrics.enabled":       false,
	"metrics.namespace":     "",
}

// LoaderConfig holds optional sources for Load.
type LoaderConfig struct {
	ConfigFile string    // YAML/JSON/TOML file path (optional)
	EnvFile    string    // .env file path (optional)
	Reader     io.Reader // in-memory config, read instead of ConfigFile (optional)
	ConfigType string    // format of Reader, default "yaml"
	EnvPrefix  string    // default DefaultEnvPrefix
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithReader reads configuration of the given type ("yaml", "json", ...) from r.
func WithReader(r io.Reader, configType string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Reader = r
		lc.ConfigType = configType
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// Load reads configuration with precedence environment > .env file > config
// file > defaults, and validates it.
func Load(opts ...LoaderOption) (*Config, error) {
	lc := LoaderConfig{EnvPrefix: DefaultEnvPrefix, ConfigType: "yaml"}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	for key, def := range keys {
		v.SetDefault(key, def)
	}

	// 1. Base configuration
	switch {
	case lc.Reader != nil:
		v.SetConfigType(lc.ConfigType)
		if err := v.ReadConfig(lc.Reader); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	case lc.ConfigFile != "":
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", lc.ConfigFile, err)
		}
	}

	// 2. Environment variables
	v.SetEnvPrefix(lc.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. .env file, below the real environment
	fromEnvFile := make(map[string]bool)
	if lc.EnvFile != "" {
		vars, err := godotenv.Read(lc.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load .env file %s: %w", lc.EnvFile, err)
		}
		for key := range keys {
			name := envName(lc.EnvPrefix, key)
			value, ok := vars[name]
			if !ok {
				continue
			}
			if _, inEnv := os.LookupEnv(name); inEnv {
				continue
			}
			v.Set(key, value)
			fromEnvFile[key] = true
		}
	}

	cfg := &Config{
		Stream: StreamConfig{
			Name:         v.GetString("stream.name"),
			Concurrency:  v.GetInt("stream.concurrency"),
			Lookahead:    v.GetInt("stream.lookahead"),
			LookaheadSet: fromEnvFile["stream.lookahead"] || isSet(v, lc.EnvPrefix, "stream.lookahead"),
			DrainOnClose: v.GetBool("stream.drain_on_close"),
			RateLimit:    v.GetFloat64("stream.rate_limit"),
			RateBurst:    v.GetInt("stream.rate_burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics.enabled"),
			Namespace: v.GetString("metrics.namespace"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isSet reports whether key came from the config file or the environment
// rather than from its default.
func isSet(v *viper.Viper, prefix, key string) bool {
	if v.InConfig(key) {
		return true
	}
	_, ok := os.LookupEnv(envName(prefix, key))
	return ok
}

func envName(prefix, key string) string {
	return strings.ToUpper(prefix + "_" + strings.ReplaceAll(key, ".", "_"))
}
