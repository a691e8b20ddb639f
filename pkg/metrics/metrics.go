// Package metrics provides Prometheus instrumentation for flowops operators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for flowops operators.
type Registry struct {
	// Operator lifecycle
	StreamOperations    *prometheus.CounterVec
	StreamItems         *prometheus.CounterVec
	StreamErrors        *prometheus.CounterVec
	StreamCancellations *prometheus.CounterVec

	// Mapping engine state
	StreamInFlight     *prometheus.GaugeVec
	StreamBufferSize   *prometheus.GaugeVec
	StreamBufferUsage  *prometheus.GaugeVec
	BackpressureEvents *prometheus.CounterVec
	TransformDuration  *prometheus.HistogramVec

	// Sources
	SourceItems *prometheus.CounterVec

	// Rate limiting
	RateLimitDecisions *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by flowops operators.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer
// and the default "flowops" namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return New(Config{Enabled: true, Registry: reg})
}

// New creates a metrics registry from config. A nil Registry falls back to
// prometheus.DefaultRegisterer and an empty Namespace to "flowops".
func New(config Config) *Registry {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}

	factory := promauto.With(config.Registry)
	ns := config.Namespace
	labels := config.Labels

	return &Registry{
		StreamOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "operations_total",
				Help:        "Total number of stream operator runs started",
				ConstLabels: labels,
			},
			[]string{"operation", "stream_name"},
		),

		StreamItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "items_processed_total",
				Help:        "Total number of items yielded by stream operators",
				ConstLabels: labels,
			},
			[]string{"operation", "stream_name"},
		),

		StreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "errors_total",
				Help:        "Total number of transform or upstream failures",
				ConstLabels: labels,
			},
			[]string{"operation", "stream_name"},
		),

		StreamCancellations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "cancellations_total",
				Help:        "Total number of operator runs ended by cancellation",
				ConstLabels: labels,
			},
			[]string{"operation", "stream_name"},
		),

		StreamInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "in_flight",
				Help:        "Number of transform invocations currently running",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		StreamBufferSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "buffer_size",
				Help:        "Stream buffer capacity (lookahead + concurrency)",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		StreamBufferUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "buffer_usage",
				Help:        "Current number of pending result slots",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "backpressure",
				Name:        "events_total",
				Help:        "Total number of times a producer paused on a limit",
				ConstLabels: labels,
			},
			[]string{"reason", "stream_name"},
		),

		TransformDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "transform_duration_seconds",
				Help:        "Time spent in user transform functions",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"operation", "stream_name"},
		),

		SourceItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "source",
				Name:        "items_pulled_total",
				Help:        "Total number of items pulled from external sources",
				ConstLabels: labels,
			},
			[]string{"source_type", "source_name"},
		),

		RateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "decisions_total",
				Help:        "Rate limiter decisions by result (allowed, limited, waited)",
				ConstLabels: labels,
			},
			[]string{"limiter_type", "limiter_name", "result"},
		),
	}
}
