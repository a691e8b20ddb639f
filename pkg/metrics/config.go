package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every flowops metric name.
const DefaultNamespace = "flowops"

// Config selects where operator metrics are registered and how they are named.
type Config struct {
	Enabled bool

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace replaces "flowops" as the metric name prefix.
	Namespace string

	// Labels are attached as constant labels, e.g. {"service": "ingest"}.
	Labels prometheus.Labels
}

// DefaultConfig enables metrics on the global Prometheus registerer.
func DefaultConfig() Config {
	return Config{Enabled: true, Registry: prometheus.DefaultRegisterer, Namespace: DefaultNamespace}
}

func (c Config) usesDefaults() bool {
	registry := c.Registry == nil || c.Registry == prometheus.DefaultRegisterer
	namespace := c.Namespace == "" || c.Namespace == DefaultNamespace
	return registry && namespace && len(c.Labels) == 0
}

// Resolve turns config into the registry operators should report to. It
// returns nil when metrics are disabled, and DefaultRegistry when config
// matches it, since registering the same collectors twice panics.
func Resolve(config Config) *Registry {
	switch {
	case !config.Enabled:
		return nil
	case config.usesDefaults():
		return DefaultRegistry
	default:
		return New(config)
	}
}
