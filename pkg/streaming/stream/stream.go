package stream

import (
	"context"
	"errors"
)

// ErrSkip is returned by a transform to drop the current item from the output
// without failing the stream. Match it with errors.Is.
var ErrSkip = errors.New("stream: skip item")

// Source is a pull-based, single-consumer sequence.
type Source[T any] interface {
	// Next returns the next element and true, the zero value and false once the
	// sequence is exhausted, or an error. After a false or an error the sequence
	// is terminal.
	Next(ctx context.Context) (T, bool, error)
	// Close tears the sequence down and releases resources. It is safe to call
	// more than once.
	Close() error
}

// MapFunc transforms one upstream item. Returning ErrSkip drops the item.
type MapFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Predicate reports whether an item matches.
type Predicate[T any] func(ctx context.Context, item T) (bool, error)

// Limiter paces transform starts. Wait blocks until the next transform may
// start or ctx is done. *bucket.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}
