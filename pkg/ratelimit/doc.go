/*
Package ratelimit holds rate limiters that pace the transforms of a stream.

  - bucket: in-process token bucket

A bucket satisfies stream.Limiter and plugs into any concurrent operator:

	limiter, _ := bucket.New(50, 10) // 50 transforms/sec, burst of 10
	out, _ := stream.Map(ctx, src, callAPI,
		stream.WithConcurrency(8),
		stream.WithRateLimit(limiter),
	)

The limiter is consulted once per pulled item, before its transform starts.
*/
package ratelimit
