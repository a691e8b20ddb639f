package stream

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// FromSlice creates a Source over the elements of slice.
func FromSlice[T any](slice []T) Source[T] {
	return &sliceSource[T]{slice: slice}
}

// FromChannel creates a Source that receives from ch until it is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	return &channelSource[T]{ch: ch}
}

// Generate creates an infinite Source from a generator function.
func Generate[T any](generator func() T) Source[T] {
	return &generatorSource[T]{generator: generator}
}

// Empty creates a Source with no elements.
func Empty[T any]() Source[T] {
	return &emptySource[T]{}
}

// FromFunc creates a Source whose Next delegates to next.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error)) Source[T] {
	return &funcSource[T]{next: next}
}

// FromSeq creates a Source over seq. Close stops the underlying iterator.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return &seqSource[T]{seq: seq}
}

// All adapts src to a range-over-func sequence of value-error pairs. The
// sequence yields at most one error, as its last pair. src is closed when the
// loop ends, including on break.
func All[T any](ctx context.Context, src Source[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer func() { _ = src.Close() }()
		for {
			v, ok, err := src.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// sliceSource implements Source for slices.
type sliceSource[T any] struct {
	slice []T
	index int64
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	currentIndex := atomic.AddInt64(&s.index, 1) - 1
	if currentIndex >= int64(len(s.slice)) {
		return zero, false, nil
	}
	return s.slice[currentIndex], true, nil
}

func (s *sliceSource[T]) Close() error {
	return nil
}

// channelSource implements Source for channels.
type channelSource[T any] struct {
	ch <-chan T
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error {
	return nil
}

// generatorSource implements Source for generator functions.
type generatorSource[T any] struct {
	generator func() T
}

func (s *generatorSource[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	default:
		return s.generator(), true, nil
	}
}

func (s *generatorSource[T]) Close() error {
	return nil
}

// emptySource implements Source for empty streams.
type emptySource[T any] struct{}

func (s *emptySource[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (s *emptySource[T]) Close() error {
	return nil
}

type funcSource[T any] struct {
	next func(ctx context.Context) (T, bool, error)
}

func (s *funcSource[T]) Next(ctx context.Context) (T, bool, error) {
	return s.next(ctx)
}

func (s *funcSource[T]) Close() error {
	return nil
}

// seqSource pulls from an iter.Seq. The pull coroutine is created on the
// first Next.
type seqSource[T any] struct {
	seq  iter.Seq[T]
	mu   sync.Mutex
	next func() (T, bool)
	stop func()
	done bool
}

func (s *seqSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return zero, false, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.next == nil {
		s.next, s.stop = iter.Pull(s.seq)
	}
	v, ok := s.next()
	if !ok {
		s.done = true
		s.stop()
		return zero, false, nil
	}
	return v, true, nil
}

func (s *seqSource[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if s.stop != nil {
		s.stop()
	}
	return nil
}
