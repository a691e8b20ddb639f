package stream

import (
	"context"

	ctxutil "github.com/vnykmshr/flowops/pkg/common/context"
	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/common/validation"
)

// Reducer folds one item into the accumulator.
type Reducer[A, T any] func(ctx context.Context, acc A, item T) (A, error)

// Reduce folds src from the left starting at initial. Items are pulled and
// folded one at a time. src is closed before Reduce returns. If ctx is
// already canceled, src is closed without being pulled.
func Reduce[T, A any](ctx context.Context, src Source[T], initial A, fn Reducer[A, T]) (A, error) {
	var zero A
	if err := validateConsumer(ctx, src, fn == nil); err != nil {
		return zero, err
	}
	defer func() { _ = src.Close() }()

	return fold(ctx, src, initial, fn)
}

// ReduceFirst folds src using its first item as the initial accumulator. An
// empty src fails with errors.ErrMissingInitialValue.
func ReduceFirst[T any](ctx context.Context, src Source[T], fn Reducer[T, T]) (T, error) {
	var zero T
	if err := validateConsumer(ctx, src, fn == nil); err != nil {
		return zero, err
	}
	defer func() { _ = src.Close() }()

	if err := ctxutil.Checkpoint(ctx); err != nil {
		return zero, err
	}
	first, ok, err := src.Next(ctx)
	if err != nil {
		return zero, pullError(ctx, err)
	}
	if !ok {
		return zero, gferrors.ErrMissingInitialValue
	}
	return fold(ctx, src, first, fn)
}

func fold[T, A any](ctx context.Context, src Source[T], acc A, fn Reducer[A, T]) (A, error) {
	var zero A
	if err := ctxutil.Checkpoint(ctx); err != nil {
		return zero, err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	for {
		item, ok, err := src.Next(runCtx)
		if err != nil {
			return zero, pullError(ctx, err)
		}
		if !ok {
			return acc, nil
		}
		if err := ctxutil.Checkpoint(ctx); err != nil {
			return zero, err
		}
		acc, err = fn(runCtx, acc, item)
		if err != nil {
			return zero, err
		}
	}
}

// ToSlice collects every item of src in order. src is closed before ToSlice
// returns.
func ToSlice[T any](ctx context.Context, src Source[T]) ([]T, error) {
	if err := validateConsumer(ctx, src, false); err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	var out []T
	for {
		if err := ctxutil.Checkpoint(ctx); err != nil {
			return nil, err
		}
		item, ok, err := src.Next(ctx)
		if err != nil {
			return nil, pullError(ctx, err)
		}
		if !ok {
			return out, nil
		}
		if err := ctxutil.Checkpoint(ctx); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}

// Take returns a stream of at most the first n items of src. It never pulls
// past the limit, and src is closed as soon as the limit is reached.
func Take[T any](ctx context.Context, src Source[T], n int) (Source[T], error) {
	if err := validateConsumer(ctx, src, false); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(module, "limit", n); err != nil {
		return nil, err
	}
	return &takeSource[T]{limitedSource: limitedSource[T]{src: src, parent: ctx}, limit: n}, nil
}

// Drop returns a stream of the items of src after the first n.
func Drop[T any](ctx context.Context, src Source[T], n int) (Source[T], error) {
	if err := validateConsumer(ctx, src, false); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(module, "count", n); err != nil {
		return nil, err
	}
	return &dropSource[T]{limitedSource: limitedSource[T]{src: src, parent: ctx}, count: n}, nil
}

// limitedSource holds the state shared by Take and Drop: the external context,
// the sticky outcome and the once-only upstream close.
type limitedSource[T any] struct {
	src         Source[T]
	parent      context.Context
	finished    bool
	terminalErr error
	srcClosed   bool
	closeErr    error
}

// pull checks both contexts and pulls one item from src with a context that
// is canceled when either of them is.
func (l *limitedSource[T]) pull(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctxutil.Checkpoints(l.parent, ctx); err != nil {
		if l.parent.Err() != nil {
			return l.finish(err)
		}
		return zero, false, err
	}

	pullCtx, stop := ctxutil.Merge(ctx, l.parent)
	item, ok, err := l.src.Next(pullCtx)
	stop()

	switch {
	case err != nil:
		if l.parent.Err() != nil {
			return l.finish(gferrors.NewCancelError(l.parent))
		}
		if ctx.Err() != nil {
			return zero, false, gferrors.NewCancelError(ctx)
		}
		return l.finish(err)
	case !ok:
		return l.finish(nil)
	}
	if l.parent.Err() != nil {
		return l.finish(gferrors.NewCancelError(l.parent))
	}
	return item, true, nil
}

func (l *limitedSource[T]) finish(err error) (T, bool, error) {
	var zero T
	l.finished = true
	l.terminalErr = err
	l.closeSource()
	return zero, false, err
}

func (l *limitedSource[T]) closeSource() {
	if l.srcClosed {
		return
	}
	l.srcClosed = true
	l.closeErr = l.src.Close()
}

func (l *limitedSource[T]) Close() error {
	l.closeSource()
	l.finished = true
	l.terminalErr = gferrors.ErrClosed
	return l.closeErr
}

type takeSource[T any] struct {
	limitedSource[T]
	limit int
	taken int
}

func (s *takeSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.finished {
		return zero, false, s.terminalErr
	}
	if s.taken >= s.limit {
		return s.finish(nil)
	}

	item, ok, err := s.pull(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	s.taken++
	if s.taken >= s.limit {
		s.closeSource()
	}
	return item, true, nil
}

type dropSource[T any] struct {
	limitedSource[T]
	count   int
	dropped int
}

func (s *dropSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.finished {
		return zero, false, s.terminalErr
	}

	for s.dropped < s.count {
		_, ok, err := s.pull(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		s.dropped++
	}
	return s.pull(ctx)
}

func validateConsumer[T any](ctx context.Context, src Source[T], nilFn bool) error {
	if err := validation.FirstError(
		validation.ValidateNotNil(module, "context", ctx),
		validation.ValidateNotNil(module, "source", src),
	); err != nil {
		return err
	}
	if nilFn {
		return gferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide a reducer function")
	}
	return nil
}

// pullError attributes a failed pull to cancellation when ctx is done.
func pullError(ctx context.Context, err error) error {
	if ctx.Err() != nil && !gferrors.IsCanceled(err) {
		return gferrors.NewCancelError(ctx)
	}
	return err
}
