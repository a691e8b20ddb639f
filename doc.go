/*
Package flowops provides ordered, bounded-concurrency operators over pull-based
streams.

Streaming (pkg/streaming):
  - stream: Source[T], the concurrent mapping engine and operators
    (Map, Filter, Some, Every, Find, ForEach, FlatMap, Reduce, ToSlice, Take, Drop)
  - sources/redislist: Redis list upstream and RPUSH sink
  - sources/schedule: cron schedule upstream

Rate Limiting (pkg/ratelimit):
  - bucket: in-process token bucket

Support:
  - config: YAML, .env and environment loading into operator options
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/flowops/pkg/ratelimit/bucket"
		"github.com/vnykmshr/flowops/pkg/streaming/stream"
	)

	limiter, _ := bucket.New(10, 20) // 10 RPS, burst 20
	out, _ := stream.Map(ctx, stream.FromSlice(urls), fetch,
		stream.WithConcurrency(5),
		stream.WithRateLimit(limiter),
	)
	pages, err := stream.ToSlice(ctx, out)
*/
package flowops
