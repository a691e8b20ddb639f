package stream

// slotKind tags the outcome held by a result slot.
type slotKind uint8

const (
	slotPending slotKind = iota
	slotValue
	slotSkip
	slotEnd
	slotFailure
)

// slot is the result of one pulled item, or a terminal marker. kind, value and
// err are written once before ready is closed and read only after.
type slot[R any] struct {
	kind  slotKind
	value R
	err   error
	ready chan struct{}
}

func pendingSlot[R any]() *slot[R] {
	return &slot[R]{kind: slotPending, ready: make(chan struct{})}
}

func settledSlot[R any](kind slotKind, err error) *slot[R] {
	s := &slot[R]{kind: kind, err: err, ready: make(chan struct{})}
	close(s.ready)
	return s
}

// ring is a FIFO that grows on demand. Memory follows the number of items
// actually queued rather than the configured capacity.
type ring[E any] struct {
	buf   []E
	head  int
	count int
}

func (r *ring[E]) Len() int {
	return r.count
}

func (r *ring[E]) Push(e E) {
	if r.count == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.count)%len(r.buf)] = e
	r.count++
}

func (r *ring[E]) Front() (E, bool) {
	var zero E
	if r.count == 0 {
		return zero, false
	}
	return r.buf[r.head], true
}

func (r *ring[E]) Pop() (E, bool) {
	var zero E
	if r.count == 0 {
		return zero, false
	}
	e := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return e, true
}

func (r *ring[E]) grow() {
	size := len(r.buf) * 2
	if size == 0 {
		size = 4
	}
	buf := make([]E, size)
	for i := 0; i < r.count; i++ {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = buf
	r.head = 0
}
