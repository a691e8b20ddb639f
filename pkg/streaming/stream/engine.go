package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	ctxutil "github.com/vnykmshr/flowops/pkg/common/context"
	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/common/validation"
)

// Map returns a stream of fn applied to every item of src, in input order.
//
// Up to WithConcurrency invocations of fn run at once, and the producer runs at
// most lookahead+concurrency items ahead of the consumer. Nothing is pulled
// from src until the first call to Next. ctx bounds the whole run: once it is
// canceled no further items are pulled and the stream fails with a
// *errors.CancelError carrying context.Cause(ctx).
//
// A transform returning ErrSkip drops its item. Any other error, or a panic,
// terminates the stream at that item's position; results before it are still
// delivered. The returned source must be closed.
func Map[T, R any](ctx context.Context, src Source[T], fn MapFunc[T, R], opts ...Option) (Source[R], error) {
	return newMapSource(ctx, "map", src, fn, opts)
}

// mapSource is the bounded-concurrency ordered mapping engine. A producer
// goroutine pulls from src and starts one goroutine per transform; Next is the
// consumer. mu guards every field below it.
type mapSource[T, R any] struct {
	src  Source[T]
	fn   MapFunc[T, R]
	cfg  config
	inst *instrumentation

	parent     context.Context
	runCtx     context.Context
	cancelRun  context.CancelCauseFunc
	pullCtx    context.Context
	cancelPull context.CancelCauseFunc

	// release disposes of values that were produced but never yielded.
	release func(R) error

	mu              sync.Mutex
	queue           ring[*slot[R]]
	inFlight        int
	started         bool
	done            bool
	yielded         bool
	finished        bool
	terminalErr     error
	producerWaiting bool
	consumerWaiting bool

	resume chan struct{}
	next   chan struct{}

	pumpDone   chan struct{}
	srcErr     error
	transforms sync.WaitGroup
	closeOnce  sync.Once
	closeErr   error
}

func newMapSource[T, R any](ctx context.Context, op string, src Source[T], fn MapFunc[T, R], opts []Option) (*mapSource[T, R], error) {
	if err := validation.FirstError(
		validation.ValidateNotNil(module, "context", ctx),
		validation.ValidateNotNil(module, "source", src),
	); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, gferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide a transform function")
	}
	cfg, err := buildConfig(op, opts)
	if err != nil {
		return nil, err
	}

	// Transforms see runCtx, which drain-on-close keeps alive. Upstream pulls
	// and limiter waits see pullCtx, which every exit path cancels.
	runCtx, cancelRun := context.WithCancelCause(ctx)
	pullCtx, cancelPull := context.WithCancelCause(runCtx)
	return &mapSource[T, R]{
		src:        src,
		fn:         fn,
		cfg:        cfg,
		inst:       newInstrumentation(op, cfg),
		parent:     ctx,
		runCtx:     runCtx,
		cancelRun:  cancelRun,
		pullCtx:    pullCtx,
		cancelPull: cancelPull,
		resume:     make(chan struct{}, 1),
		next:       make(chan struct{}, 1),
		pumpDone:   make(chan struct{}),
	}, nil
}

// Next returns the next transformed item in input order.
//
// A canceled ctx returns a *errors.CancelError without ending the stream.
// End of stream and failures are sticky: later calls return the same result.
func (m *mapSource[T, R]) Next(ctx context.Context) (R, bool, error) {
	var zero R

	m.mu.Lock()
	if m.finished {
		err := m.terminalErr
		m.mu.Unlock()
		return zero, false, err
	}
	if m.parent.Err() != nil {
		return m.finishLocked(gferrors.NewCancelError(m.parent))
	}
	if err := ctxutil.Checkpoint(ctx); err != nil {
		m.mu.Unlock()
		return zero, false, err
	}
	if !m.started {
		m.started = true
		m.inst.begin(m.cfg)
		go m.pump()
	}
	if m.yielded {
		m.yielded = false
		m.queue.Pop()
		m.maybeResumeLocked()
	}

	for {
		front, ok := m.queue.Front()
		if !ok {
			if m.done {
				// The producer has exited without a terminal slot.
				if m.parent.Err() != nil {
					return m.finishLocked(gferrors.NewCancelError(m.parent))
				}
				return m.finishLocked(nil)
			}
			m.consumerWaiting = true
			m.mu.Unlock()

			select {
			case <-m.next:
			case <-m.parent.Done():
			case <-ctx.Done():
				m.mu.Lock()
				m.consumerWaiting = false
				m.mu.Unlock()
				return zero, false, gferrors.NewCancelError(ctx)
			}

			m.mu.Lock()
			m.consumerWaiting = false
			if m.finished {
				err := m.terminalErr
				m.mu.Unlock()
				return zero, false, err
			}
			if m.parent.Err() != nil {
				return m.finishLocked(gferrors.NewCancelError(m.parent))
			}
			continue
		}
		m.mu.Unlock()

		select {
		case <-front.ready:
		case <-m.parent.Done():
		case <-ctx.Done():
			return zero, false, gferrors.NewCancelError(ctx)
		}

		m.mu.Lock()
		if m.finished {
			err := m.terminalErr
			m.mu.Unlock()
			return zero, false, err
		}
		if m.parent.Err() != nil {
			return m.finishLocked(gferrors.NewCancelError(m.parent))
		}

		switch front.kind {
		case slotEnd:
			return m.finishLocked(nil)
		case slotFailure:
			return m.finishLocked(front.err)
		case slotSkip:
			m.queue.Pop()
			m.maybeResumeLocked()
		case slotValue:
			m.yielded = true
			m.inst.yielded()
			m.mu.Unlock()
			return front.value, true, nil
		}
	}
}

// Close stops the producer, cancels in-flight transforms unless drain-on-close
// is set, waits for every goroutine of the run and closes the upstream. It
// returns the upstream's close error. Next returns errors.ErrClosed afterwards.
func (m *mapSource[T, R]) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.done = true
		m.finished = true
		m.terminalErr = gferrors.ErrClosed
		started := m.started
		m.maybeResumeLocked()
		m.mu.Unlock()

		m.cancelPull(gferrors.ErrClosed)
		if !m.cfg.drainOnClose {
			m.cancelRun(gferrors.ErrClosed)
		}
		if started {
			<-m.pumpDone
			m.closeErr = m.srcErr
		} else {
			m.closeErr = m.src.Close()
		}
		m.transforms.Wait()
		m.cancelRun(gferrors.ErrClosed)
		if errs := m.releaseUnyielded(); len(errs) > 0 {
			m.closeErr = errors.Join(append([]error{m.closeErr}, errs...)...)
		}
		m.inst.closed()
	})
	return m.closeErr
}

// releaseUnyielded hands every settled value still queued to release. The
// front value is skipped when it was already yielded to the consumer.
func (m *mapSource[T, R]) releaseUnyielded() []error {
	if m.release == nil {
		return nil
	}
	m.mu.Lock()
	if m.yielded {
		m.yielded = false
		m.queue.Pop()
	}
	var pending []R
	for {
		s, ok := m.queue.Pop()
		if !ok {
			break
		}
		if s.kind == slotValue {
			pending = append(pending, s.value)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, v := range pending {
		if err := m.release(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// finishLocked makes err the sticky outcome of Next and stops the producer.
// A nil err is a clean end. It releases mu.
func (m *mapSource[T, R]) finishLocked(err error) (R, bool, error) {
	var zero R
	m.finished = true
	m.terminalErr = err
	m.done = true
	m.maybeResumeLocked()
	m.mu.Unlock()

	if err != nil {
		m.cancelPull(err)
		if !m.cfg.drainOnClose {
			m.cancelRun(err)
		}
	} else {
		m.cancelPull(gferrors.ErrClosed)
	}
	m.inst.end(err)
	return zero, false, err
}

// pump is the producer loop.
func (m *mapSource[T, R]) pump() {
	defer m.exitPump()

	for {
		m.mu.Lock()
		if m.done {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		if m.parent.Err() != nil {
			m.pushTerminal(settledSlot[R](slotFailure, gferrors.NewCancelError(m.parent)))
			return
		}

		if m.cfg.limiter != nil {
			if err := m.cfg.limiter.Wait(m.pullCtx); err != nil {
				if m.parent.Err() != nil {
					err = gferrors.NewCancelError(m.parent)
				}
				m.pushTerminal(settledSlot[R](slotFailure, err))
				return
			}
		}

		item, ok, err := m.src.Next(m.pullCtx)
		switch {
		case err != nil:
			if m.parent.Err() != nil {
				err = gferrors.NewCancelError(m.parent)
			}
			m.pushTerminal(settledSlot[R](slotFailure, err))
			return
		case !ok:
			m.pushTerminal(settledSlot[R](slotEnd, nil))
			return
		}

		s := pendingSlot[R]()
		m.mu.Lock()
		if m.done {
			m.mu.Unlock()
			return
		}
		m.queue.Push(s)
		m.inFlight++
		m.transforms.Add(1)
		m.wakeConsumerLocked()
		m.inst.state(m.queue.Len(), m.inFlight)
		m.mu.Unlock()

		go m.invoke(item, s)

		m.mu.Lock()
		for !m.done && m.atLimitLocked() {
			if m.parent.Err() != nil {
				break
			}
			if m.inFlight >= m.cfg.concurrency {
				m.inst.backpressure("concurrency")
			} else {
				m.inst.backpressure("buffer")
			}
			m.producerWaiting = true
			m.mu.Unlock()

			select {
			case <-m.resume:
			case <-m.parent.Done():
			}

			m.mu.Lock()
			m.producerWaiting = false
		}
		m.mu.Unlock()
	}
}

// pushTerminal appends an END or failure slot unless the run is already done.
func (m *mapSource[T, R]) pushTerminal(s *slot[R]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.queue.Push(s)
	m.done = true
	m.wakeConsumerLocked()
}

func (m *mapSource[T, R]) exitPump() {
	m.mu.Lock()
	m.done = true
	m.wakeConsumerLocked()
	m.mu.Unlock()

	m.srcErr = m.src.Close()
	close(m.pumpDone)
}

// invoke runs one transform and settles its slot.
func (m *mapSource[T, R]) invoke(item T, s *slot[R]) {
	defer m.transforms.Done()

	start := time.Now()
	value, err := m.call(item)
	m.inst.transform(time.Since(start))

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err == nil:
		s.kind = slotValue
		s.value = value
	case errors.Is(err, ErrSkip):
		s.kind = slotSkip
	default:
		s.kind = slotFailure
		s.err = err
		m.done = true
	}
	m.inFlight--
	close(s.ready)
	m.inst.state(m.queue.Len(), m.inFlight)
	m.maybeResumeLocked()
}

func (m *mapSource[T, R]) call(item T) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gferrors.NewPanicError(r)
		}
	}()
	return m.fn(m.runCtx, item)
}

func (m *mapSource[T, R]) atLimitLocked() bool {
	return m.queue.Len() >= m.cfg.capacity() || m.inFlight >= m.cfg.concurrency
}

// maybeResumeLocked wakes a suspended producer when it has room to pull or
// when the run is done so it can exit.
func (m *mapSource[T, R]) maybeResumeLocked() {
	if !m.producerWaiting {
		return
	}
	if !m.done && m.atLimitLocked() {
		return
	}
	m.producerWaiting = false
	select {
	case m.resume <- struct{}{}:
	default:
	}
}

func (m *mapSource[T, R]) wakeConsumerLocked() {
	if !m.consumerWaiting {
		return
	}
	m.consumerWaiting = false
	select {
	case m.next <- struct{}{}:
	default:
	}
}
