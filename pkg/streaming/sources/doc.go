// Package sources groups stream.Source implementations backed by external systems.
//
//   - redislist: pops items from a Redis list, and pushes results back with RPUSH
//   - schedule: yields the fire times of a cron expression
package sources
