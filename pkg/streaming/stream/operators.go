package stream

import (
	"context"
	"errors"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
)

// Filter returns a stream of the items of src for which pred holds, in input
// order. pred runs with the same concurrency and lookahead rules as Map.
func Filter[T any](ctx context.Context, src Source[T], pred Predicate[T], opts ...Option) (Source[T], error) {
	return filterSource(ctx, "filter", src, pred, opts)
}

func filterSource[T any](ctx context.Context, op string, src Source[T], pred Predicate[T], opts []Option) (*mapSource[T, T], error) {
	if pred == nil {
		return nil, gferrors.NewValidationError(module, "predicate", nil, "cannot be nil").
			WithHint("provide a predicate function")
	}
	return newMapSource(ctx, op, src, func(ctx context.Context, item T) (T, error) {
		ok, err := pred(ctx, item)
		if err != nil {
			var zero T
			return zero, err
		}
		if !ok {
			return item, ErrSkip
		}
		return item, nil
	}, opts)
}

// Some reports whether pred holds for any item of src. It stops at the first
// match; pending predicate calls are canceled when it returns, unless
// WithDrainOnClose is set.
func Some[T any](ctx context.Context, src Source[T], pred Predicate[T], opts ...Option) (bool, error) {
	_, found, err := findFirst(ctx, "some", src, pred, opts)
	return found, err
}

// Every reports whether pred holds for every item of src. It stops at the
// first item for which pred is false. An empty src yields true.
func Every[T any](ctx context.Context, src Source[T], pred Predicate[T], opts ...Option) (bool, error) {
	if pred == nil {
		return false, gferrors.NewValidationError(module, "predicate", nil, "cannot be nil").
			WithHint("provide a predicate function")
	}
	_, found, err := findFirst(ctx, "every", src, func(ctx context.Context, item T) (bool, error) {
		ok, err := pred(ctx, item)
		return !ok, err
	}, opts)
	if err != nil {
		return false, err
	}
	return !found, nil
}

// Find returns the first item of src, in input order, for which pred holds.
func Find[T any](ctx context.Context, src Source[T], pred Predicate[T], opts ...Option) (T, bool, error) {
	return findFirst(ctx, "find", src, pred, opts)
}

func findFirst[T any](ctx context.Context, op string, src Source[T], pred Predicate[T], opts []Option) (T, bool, error) {
	var zero T

	filtered, err := filterSource(ctx, op, src, pred, opts)
	if err != nil {
		return zero, false, err
	}
	defer func() { _ = filtered.Close() }()

	v, ok, err := filtered.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	return v, true, nil
}

// ForEach calls fn for every item of src with the given concurrency and waits
// for all of them. It returns the first error in input order.
func ForEach[T any](ctx context.Context, src Source[T], fn func(ctx context.Context, item T) error, opts ...Option) error {
	if fn == nil {
		return gferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide a callback function")
	}
	m, err := newMapSource(ctx, "for_each", src, func(ctx context.Context, item T) (struct{}, error) {
		if err := fn(ctx, item); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, ErrSkip
	}, opts)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	for {
		_, ok, err := m.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// FlatMap maps every item of src to a Source and concatenates them in input
// order. fn runs with the given concurrency; the inner sources are drained one
// at a time by the consumer. Each inner source is closed once drained or when
// the returned stream is closed, including inner sources produced ahead of the
// consumer and never reached. A nil inner source counts as empty.
func FlatMap[T, R any](ctx context.Context, src Source[T], fn func(ctx context.Context, item T) (Source[R], error), opts ...Option) (Source[R], error) {
	if fn == nil {
		return nil, gferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide a transform function")
	}
	outer, err := newMapSource(ctx, "flat_map", src, MapFunc[T, Source[R]](fn), opts)
	if err != nil {
		return nil, err
	}
	outer.release = func(inner Source[R]) error {
		if inner == nil {
			return nil
		}
		return inner.Close()
	}
	return &flatSource[R]{outer: outer}, nil
}

// FlatMapSlice is FlatMap for transforms that return a slice.
func FlatMapSlice[T, R any](ctx context.Context, src Source[T], fn func(ctx context.Context, item T) ([]R, error), opts ...Option) (Source[R], error) {
	if fn == nil {
		return nil, gferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide a transform function")
	}
	return FlatMap(ctx, src, func(ctx context.Context, item T) (Source[R], error) {
		items, err := fn(ctx, item)
		if err != nil {
			return nil, err
		}
		return FromSlice(items), nil
	}, opts...)
}

// flatSource concatenates the inner sources produced by outer.
type flatSource[R any] struct {
	outer       Source[Source[R]]
	inner       Source[R]
	finished    bool
	terminalErr error
}

func (f *flatSource[R]) Next(ctx context.Context) (R, bool, error) {
	var zero R

	for !f.finished {
		if f.inner != nil {
			v, ok, err := f.inner.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return zero, false, gferrors.NewCancelError(ctx)
				}
				return f.finish(err)
			}
			if ok {
				return v, true, nil
			}
			inner := f.inner
			f.inner = nil
			if err := inner.Close(); err != nil {
				return f.finish(err)
			}
		}

		src, ok, err := f.outer.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, false, gferrors.NewCancelError(ctx)
			}
			return f.finish(err)
		}
		if !ok {
			return f.finish(nil)
		}
		f.inner = src
	}
	return zero, false, f.terminalErr
}

func (f *flatSource[R]) finish(err error) (R, bool, error) {
	var zero R
	f.finished = true
	f.terminalErr = err
	return zero, false, err
}

func (f *flatSource[R]) Close() error {
	var errs []error
	if f.inner != nil {
		errs = append(errs, f.inner.Close())
		f.inner = nil
	}
	errs = append(errs, f.outer.Close())
	f.finished = true
	f.terminalErr = gferrors.ErrClosed
	return errors.Join(errs...)
}
