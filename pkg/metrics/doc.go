// Package metrics provides Prometheus instrumentation for flowops operators.
//
// Operators accept a *Registry through stream.WithMetrics and report on every
// run: how many runs started, how many items were yielded, how many runs failed
// or were canceled, and the live state of the mapping engine.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	out, err := stream.Map(ctx, src, fetch,
//		stream.WithConcurrency(8),
//		stream.WithName("fetch"),
//		stream.WithMetrics(reg),
//	)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
//   - flowops_stream_operations_total: operator runs started
//   - flowops_stream_items_processed_total: items yielded to the consumer
//   - flowops_stream_errors_total: runs ended by a transform or upstream failure
//   - flowops_stream_cancellations_total: runs ended by cancellation
//   - flowops_stream_in_flight: transform invocations currently running
//   - flowops_stream_buffer_size: lookahead + concurrency
//   - flowops_stream_buffer_usage: pending result slots
//   - flowops_backpressure_events_total: producer pauses, by reason
//   - flowops_stream_transform_duration_seconds: time spent in user transforms
//   - flowops_source_items_pulled_total: items pulled from Redis or cron sources
//   - flowops_ratelimit_decisions_total: token bucket outcomes ("allowed", "limited", "waited")
//
// # Labels
//
//   - operation: "map", "filter", "for_each", "flat_map", ...
//   - stream_name: the name given with stream.WithName
//   - reason: "concurrency" or "buffer"
//   - source_type, source_name: "redislist" or "schedule" and the configured key or spec
//   - limiter_type, limiter_name, result: "bucket", bucket.Config.Name and the decision
//
// # Configuration
//
//	config := metrics.Config{
//		Enabled:   true,
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",                           // Override default "flowops"
//		Labels:    prometheus.Labels{"version": "1.0"}, // Additional labels
//	}
//	reg := metrics.Resolve(config) // nil when disabled
package metrics
