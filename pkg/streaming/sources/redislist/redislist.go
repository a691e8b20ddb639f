// Package redislist adapts a Redis list to a stream.Source.
package redislist

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/common/validation"
	"github.com/vnykmshr/flowops/pkg/metrics"
	"github.com/vnykmshr/flowops/pkg/streaming/stream"
)

const module = "redislist"

// Config holds configuration for a Redis list source.
type Config struct {
	// Client is the Redis client. It is owned by the caller and not closed by the source.
	Client redis.UniversalClient

	// Key is the list to pop from.
	Key string

	// BlockTimeout selects BLPOP with this timeout when positive. A zero value
	// uses LPOP, so the stream ends as soon as the list is empty.
	BlockTimeout time.Duration

	// Metrics counts popped items when set.
	Metrics *metrics.Registry
}

// source pops items from the head of a Redis list. An empty list (LPOP) or
// an expired wait (BLPOP) ends the stream.
type source struct {
	config Config
	done   atomic.Bool
	closed atomic.Bool
}

// NewSource creates a stream.Source that consumes config.Key from the head.
func NewSource(config Config) (stream.Source[string], error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &source{config: config}, nil
}

func validateConfig(config Config) error {
	if config.Client == nil {
		return gferrors.NewValidationError(module, "client", nil, "cannot be nil").
			WithHint("provide a redis client")
	}
	if err := validation.ValidateNotEmpty(module, "key", config.Key); err != nil {
		return err
	}
	if config.BlockTimeout < 0 {
		return gferrors.NewValidationError(module, "block_timeout", config.BlockTimeout, "cannot be negative").
			WithHint("use 0 for LPOP or a positive timeout for BLPOP")
	}
	return nil
}

func (s *source) Next(ctx context.Context) (string, bool, error) {
	if s.closed.Load() {
		return "", false, gferrors.ErrClosed
	}
	if s.done.Load() {
		return "", false, nil
	}

	value, err := s.pop(ctx)
	if errors.Is(err, redis.Nil) {
		s.done.Store(true)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if s.config.Metrics != nil {
		s.config.Metrics.SourceItems.WithLabelValues(module, s.config.Key).Inc()
	}
	return value, true, nil
}

func (s *source) pop(ctx context.Context) (string, error) {
	if s.config.BlockTimeout <= 0 {
		value, err := s.config.Client.LPop(ctx, s.config.Key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", gferrors.NewOperationError(module, "LPop", err).WithContext("key=" + s.config.Key)
		}
		return value, err
	}

	res, err := s.config.Client.BLPop(ctx, s.config.BlockTimeout, s.config.Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", err
		}
		return "", gferrors.NewOperationError(module, "BLPop", err).WithContext("key=" + s.config.Key)
	}
	// BLPOP replies with [key, value].
	if len(res) != 2 {
		return "", gferrors.NewOperationError(module, "BLPop", errors.New("unexpected reply length")).
			WithContext("key=" + s.config.Key)
	}
	return res[1], nil
}

// Close marks the source closed. The client is left open.
func (s *source) Close() error {
	s.closed.Store(true)
	return nil
}

// Pusher returns a callback that appends each item to the tail of key with
// RPUSH, suitable for stream.ForEach. Tail order matches call order, so use it
// with the default concurrency of 1 when order matters.
func Pusher(client redis.UniversalClient, key string) func(ctx context.Context, item string) error {
	return func(ctx context.Context, item string) error {
		if err := client.RPush(ctx, key, item).Err(); err != nil {
			return gferrors.NewOperationError(module, "RPush", err).WithContext("key=" + key)
		}
		return nil
	}
}
