package stream

import (
	"context"
	"sync/atomic"
)

// countingSource records pulls and closes of the wrapped source.
type countingSource[T any] struct {
	Source[T]
	pulls  atomic.Int32
	closes atomic.Int32
}

func newCounting[T any](items []T) *countingSource[T] {
	return &countingSource[T]{Source: FromSlice(items)}
}

func wrapCounting[T any](src Source[T]) *countingSource[T] {
	return &countingSource[T]{Source: src}
}

func (c *countingSource[T]) Next(ctx context.Context) (T, bool, error) {
	c.pulls.Add(1)
	return c.Source.Next(ctx)
}

func (c *countingSource[T]) Close() error {
	c.closes.Add(1)
	return c.Source.Close()
}

// maxTracker records the peak number of concurrent holders.
type maxTracker struct {
	active atomic.Int32
	peak   atomic.Int32
}

func (m *maxTracker) enter() {
	n := m.active.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (m *maxTracker) leave() {
	m.active.Add(-1)
}

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func double(_ context.Context, x int) (int, error) {
	return x * 2, nil
}
