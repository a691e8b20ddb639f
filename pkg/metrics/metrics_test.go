package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherNames(t *testing.T, g prometheus.Gatherer) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestNewRegistry_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.StreamOperations.WithLabelValues("map", "t").Inc()
	r.StreamItems.WithLabelValues("map", "t").Add(3)
	r.StreamErrors.WithLabelValues("map", "t").Inc()
	r.StreamCancellations.WithLabelValues("map", "t").Inc()
	r.StreamInFlight.WithLabelValues("t").Set(2)
	r.StreamBufferSize.WithLabelValues("t").Set(4)
	r.StreamBufferUsage.WithLabelValues("t").Set(1)
	r.BackpressureEvents.WithLabelValues("buffer", "t").Inc()
	r.TransformDuration.WithLabelValues("map", "t").Observe(0.01)
	r.SourceItems.WithLabelValues("redislist", "jobs").Inc()
	r.RateLimitDecisions.WithLabelValues("bucket", "api", "allowed").Inc()

	families := gatherNames(t, reg)
	want := []string{
		"flowops_stream_operations_total",
		"flowops_stream_items_processed_total",
		"flowops_stream_errors_total",
		"flowops_stream_cancellations_total",
		"flowops_stream_in_flight",
		"flowops_stream_buffer_size",
		"flowops_stream_buffer_usage",
		"flowops_backpressure_events_total",
		"flowops_stream_transform_duration_seconds",
		"flowops_source_items_pulled_total",
		"flowops_ratelimit_decisions_total",
	}
	for _, name := range want {
		if _, ok := families[name]; !ok {
			t.Errorf("metric %q not registered", name)
		}
	}

	items := families["flowops_stream_items_processed_total"].GetMetric()[0].GetCounter().GetValue()
	if items != 3 {
		t.Errorf("items = %v, want 3", items)
	}
}

func TestNew_NamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "myapp",
		Labels:    prometheus.Labels{"version": "1.0"},
	})
	r.StreamItems.WithLabelValues("filter", "x").Inc()

	families := gatherNames(t, reg)
	f, ok := families["myapp_stream_items_processed_total"]
	if !ok {
		t.Fatal("namespaced metric not registered")
	}

	var found bool
	for _, lp := range f.GetMetric()[0].GetLabel() {
		if lp.GetName() == "version" && lp.GetValue() == "1.0" {
			found = true
		}
	}
	if !found {
		t.Error("constant label version=1.0 missing")
	}
}

func TestResolve(t *testing.T) {
	if Resolve(Config{Enabled: false}) != nil {
		t.Error("disabled config should resolve to nil")
	}
	if Resolve(DefaultConfig()) != DefaultRegistry {
		t.Error("default config should resolve to DefaultRegistry")
	}

	custom := Resolve(Config{Enabled: true, Registry: prometheus.NewRegistry()})
	if custom == nil || custom == DefaultRegistry {
		t.Error("custom registerer should get its own registry")
	}
}
