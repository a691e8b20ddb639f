/*
Package stream provides ordered, bounded-concurrency operators over pull-based sources.

A Source is a single-consumer sequence: Next(ctx) returns the next item, false at the
end, or an error, and Close tears the sequence down. Operators take a Source and return
either a new lazy Source or a single result.

Core Concepts:

  - Ordered: output order always equals input order, whatever order transforms finish in
  - Bounded: at most WithConcurrency transforms run at once, and the producer runs at most
    lookahead+concurrency items ahead of the consumer
  - Lazy: nothing is pulled until the first Next
  - Cancelable: the ctx given to an operator bounds its whole run; cancellation surfaces
    as *errors.CancelError carrying context.Cause
  - Resource-managed: every returned Source must be closed; Close waits for every
    goroutine of the run

Basic Usage:

	src := stream.FromSlice(urls)

	pages, err := stream.Map(ctx, src, fetch, stream.WithConcurrency(8))
	if err != nil {
		log.Fatal(err)
	}
	defer pages.Close()

	for page, err := range stream.All(ctx, pages) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(page.Title)
	}

Sources:

	stream.FromSlice([]string{"a", "b", "c"})
	stream.FromChannel(ch)
	stream.Generate(func() int { counter++; return counter }) // infinite
	stream.FromSeq(maps.Keys(m))
	stream.FromFunc(func(ctx context.Context) (Row, bool, error) { return rows.Next(ctx) })
	stream.Empty[int]()

Concurrent Operators:

Map, Filter, FlatMap, FlatMapSlice, ForEach, Some, Every and Find share one engine and
accept the same options:

	stream.WithConcurrency(4)        // transforms running at once, default 1
	stream.WithLookahead(16)         // settled results buffered ahead, default concurrency-1
	stream.WithName("enrich")        // label for logs and metrics
	stream.WithLogger(zlog)          // zerolog.Logger, default zerolog.Nop()
	stream.WithMetrics(registry)     // *metrics.Registry
	stream.WithDrainOnClose(true)    // let in-flight transforms finish on Close
	stream.WithRateLimit(limiter)    // wait on a Limiter before each pull

A transform drops its item by returning stream.ErrSkip. Any other error terminates the
stream at that item's position; earlier results are still delivered first. A panic in a
transform is recovered into *errors.PanicError.

Some, Every and Find stop at the first decisive item and close the engine, which cancels
the context of transforms still running.

Sequential Operators:

	sum, err := stream.Reduce(ctx, src, 0, func(ctx context.Context, acc, x int) (int, error) {
		return acc + x, nil
	})
	max, err := stream.ReduceFirst(ctx, src, maxInt) // errors.ErrMissingInitialValue when empty
	all, err := stream.ToSlice(ctx, src)
	head, err := stream.Take(ctx, src, 10) // never pulls past 10, closes src at the limit
	tail, err := stream.Drop(ctx, src, 10)

Reduce, ReduceFirst and ToSlice close their source before returning.

Thread Safety:

A Source is not safe for concurrent Next calls. Close may be called from another
goroutine to abort a consumer blocked in Next.
*/
package stream
