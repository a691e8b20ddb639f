/*
Package streaming groups the stream operators and the external sources that
feed them.

  - stream: Source[T] pull abstraction, the ordered concurrent mapping engine
    and the operators built on it
  - sources/redislist: pops items from a Redis list, pushes results to another
  - sources/schedule: yields the fire times of a cron expression

Basic usage:

	src, _ := redislist.NewSource(redislist.Config{Client: rdb, Key: "jobs"})
	done, _ := stream.Map(ctx, src, process, stream.WithConcurrency(8))
	err := stream.ForEach(ctx, done, redislist.Pusher(rdb, "results"))

Every operator preserves input order, bounds in-flight work and stops pulling
as soon as its context is canceled.
*/
package streaming
