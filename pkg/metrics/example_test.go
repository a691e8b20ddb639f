package metrics_test

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vnykmshr/flowops/pkg/metrics"
	"github.com/vnykmshr/flowops/pkg/streaming/stream"
)

func counter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

// Example_streamOperator reports a Map run to an isolated registry.
func Example_streamOperator() {
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	ctx := context.Background()
	doubled, err := stream.Map(ctx, stream.FromSlice([]int{1, 2, 3, 4}),
		func(_ context.Context, n int) (int, error) { return n * 2, nil },
		stream.WithConcurrency(2),
		stream.WithName("double"),
		stream.WithMetrics(reg),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	out, err := stream.ToSlice(ctx, doubled)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(out)
	fmt.Println("runs:", counter(reg.StreamOperations.WithLabelValues("map", "double")))
	fmt.Println("items:", counter(reg.StreamItems.WithLabelValues("map", "double")))

	// Output:
	// [2 4 6 8]
	// runs: 1
	// items: 4
}

// Example_namespace registers collectors under a custom prefix with a
// constant service label.
func Example_namespace() {
	promReg := prometheus.NewRegistry()
	reg := metrics.Resolve(metrics.Config{
		Enabled:   true,
		Registry:  promReg,
		Namespace: "ingest",
		Labels:    prometheus.Labels{"service": "orders"},
	})
	reg.RateLimitDecisions.WithLabelValues("bucket", "orders", "allowed").Inc()

	families, _ := promReg.Gather()
	for _, mf := range families {
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			if lp.GetName() == "service" {
				fmt.Println(mf.GetName(), lp.GetValue())
			}
		}
	}

	// Output:
	// ingest_ratelimit_decisions_total orders
}

// Example_configuration shows how Resolve treats the default and disabled configs.
func Example_configuration() {
	fmt.Println("default is shared:", metrics.Resolve(metrics.DefaultConfig()) == metrics.DefaultRegistry)
	fmt.Println("disabled is nil:", metrics.Resolve(metrics.Config{Namespace: "myapp"}) == nil)

	// Output:
	// default is shared: true
	// disabled is nil: true
}
