package ring

import (
	"context"
	"sync"

	"github.com/c360/ringkit/errors"
)

// exclusiveAccess guards storage with a single mutex and a two-phase
// allocate/publish protocol. Exactly one put and one take may be mid-copy
// concurrently; a second operation of the same kind fails fast with
// ErrConcurrencyViolation.
//
// Allocation writes the prospective post-operation state into the shadow
// fields (dirtyHead/dirtyTail/dirtyLength) while the authoritative
// head/tail/length stay untouched, so a concurrently arriving operation of
// the other kind already sees the space as reserved or the content as
// available. The slow copy itself runs with no lock held; publish commits
// the operation's effect into the authoritative fields.
type exclusiveAccess[T any] struct {
	mu sync.Mutex
	st *storage[T]

	// Shadow state: the buffer as it will be once every in-flight
	// operation has published.
	dirtyHead   int
	dirtyTail   int
	dirtyLength int

	putInFlight  bool
	takeInFlight bool
	closed       bool
}

// exclusiveOp is the reservation handed to the execute step.
type exclusiveOp struct {
	start int
	count int
}

func newExclusiveAccess[T any](st *storage[T]) *exclusiveAccess[T] {
	return &exclusiveAccess[T]{st: st}
}

// allocatePut reserves count elements at the shadow tail.
func (a *exclusiveAccess[T]) allocatePut(count int) (exclusiveOp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return exclusiveOp{}, errors.ErrBufferClosed
	}
	if a.putInFlight {
		return exclusiveOp{}, errors.WrapInvalid(errors.ErrConcurrencyViolation,
			"ExclusiveBuffer", "put", "a put is already in flight")
	}
	if a.dirtyLength+count > a.st.capacity {
		return exclusiveOp{}, errors.ErrCapacityExceeded
	}

	op := exclusiveOp{start: a.dirtyTail, count: count}
	a.dirtyTail = a.st.advance(a.dirtyTail, count)
	a.dirtyLength += count
	a.putInFlight = true
	return op, nil
}

// publishPut commits a put's effect. A short fill rolls the reservation back
// only when it can shrink safely: no take may be mid-copy and the shadow
// length must still cover the shortfall. A take that allocated against the
// reserved content and already published leaves dirtyLength below the
// shortfall; shrinking then would drive the length negative, so the unfilled
// remainder is zeroed and the full region published instead.
func (a *exclusiveAccess[T]) publishPut(op exclusiveOp, obtained int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	commit := op.count
	if shortfall := op.count - obtained; shortfall > 0 {
		if !a.takeInFlight && a.dirtyLength >= shortfall {
			a.dirtyTail = (a.dirtyTail - shortfall%a.st.capacity + a.st.capacity) % a.st.capacity
			a.dirtyLength -= shortfall
			commit = obtained
		} else {
			a.st.zeroAt(a.st.advance(op.start, obtained), shortfall)
		}
	}

	a.st.tail = a.st.advance(op.start, commit)
	a.st.length += commit
	a.putInFlight = false
}

// allocateTake reserves count elements at the shadow head.
func (a *exclusiveAccess[T]) allocateTake(count int) (exclusiveOp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return exclusiveOp{}, errors.ErrBufferClosed
	}
	if a.takeInFlight {
		return exclusiveOp{}, errors.WrapInvalid(errors.ErrConcurrencyViolation,
			"ExclusiveBuffer", "take", "a take is already in flight")
	}
	if a.dirtyLength < count {
		return exclusiveOp{}, errors.ErrContentInsufficient
	}

	op := exclusiveOp{start: a.dirtyHead, count: count}
	a.dirtyHead = a.st.advance(a.dirtyHead, count)
	a.dirtyLength -= count
	a.takeInFlight = true
	return op, nil
}

// publishTake commits a take. The full reserved region is always consumed;
// elements not delivered to a failing sink are lost, not replayed.
func (a *exclusiveAccess[T]) publishTake(op exclusiveOp) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.head = a.st.advance(op.start, op.count)
	a.st.length -= op.count
	a.takeInFlight = false
}

func (a *exclusiveAccess[T]) putMany(ctx context.Context, src []T, offset, count int) (int, error) {
	op, err := a.allocatePut(count)
	if err != nil {
		return 0, err
	}

	chunks := a.st.regions(op.start, count)
	obtained, fillErr := fillFromSlice(ctx, chunks, src[offset:offset+count])

	a.publishPut(op, obtained)
	return 0, fillErr
}

func (a *exclusiveAccess[T]) putFrom(ctx context.Context, src Source[T], count int, exact bool) (int, error) {
	op, err := a.allocatePut(count)
	if err != nil {
		return 0, err
	}

	chunks := a.st.regions(op.start, count)
	obtained, fillErr := fillFromSource(ctx, chunks, src)

	a.publishPut(op, obtained)

	if fillErr != nil {
		if !exact && errors.Is(fillErr, errors.ErrEndOfSource) {
			return obtained, nil
		}
		return obtained, fillErr
	}
	return obtained, nil
}

func (a *exclusiveAccess[T]) takeInto(ctx context.Context, dst []T, offset, count int) error {
	op, err := a.allocateTake(count)
	if err != nil {
		return err
	}

	chunks := a.st.regions(op.start, count)
	_, drainErr := drainToSlice(ctx, chunks, dst[offset:offset+count])

	a.publishTake(op)
	return drainErr
}

func (a *exclusiveAccess[T]) takeTo(ctx context.Context, sink Sink[T], count int) (int, error) {
	op, err := a.allocateTake(count)
	if err != nil {
		return 0, err
	}

	chunks := a.st.regions(op.start, count)
	delivered, sinkErr := drainToSink(ctx, chunks, sink)

	a.publishTake(op)
	return delivered, sinkErr
}

// skip is an allocate immediately followed by its publish: there is no copy
// to run lock-free, so both phases share one critical section.
func (a *exclusiveAccess[T]) skip(_ context.Context, count int) error {
	op, err := a.allocateTake(count)
	if err != nil {
		return err
	}
	a.publishTake(op)
	return nil
}

func (a *exclusiveAccess[T]) peek() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	if a.st.length == 0 {
		return zero, false
	}
	return a.st.items[a.st.head], true
}

func (a *exclusiveAccess[T]) occupied() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.length
}

// quiesced returns an error unless no operation is mid-flight.
func (a *exclusiveAccess[T]) quiesced(operation string) error {
	if a.closed {
		return errors.ErrBufferClosed
	}
	if a.putInFlight || a.takeInFlight {
		return errors.WrapInvalid(errors.ErrConcurrencyViolation,
			"ExclusiveBuffer", operation, "operations still in flight")
	}
	return nil
}

func (a *exclusiveAccess[T]) drainAll() ([]T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiesced("drain"); err != nil {
		return nil, err
	}
	out := a.st.drain()
	a.dirtyHead = a.st.head
	a.dirtyTail = a.st.tail
	a.dirtyLength = 0
	return out, nil
}

func (a *exclusiveAccess[T]) trim(newLength int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiesced("trim"); err != nil {
		return err
	}
	if err := a.st.trim(newLength); err != nil {
		return err
	}
	a.dirtyTail = a.st.tail
	a.dirtyLength = a.st.length
	return nil
}

func (a *exclusiveAccess[T]) reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiesced("reset"); err != nil {
		return err
	}
	a.st.reset()
	a.dirtyHead = 0
	a.dirtyTail = 0
	a.dirtyLength = 0
	return nil
}

func (a *exclusiveAccess[T]) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
