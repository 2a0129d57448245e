package ring

import (
	"context"
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/sync/semaphore"

	"github.com/c360/ringkit/errors"
)

// parallelAccess admits up to maxConcurrentOps put/take operations at once.
// Each operation independently reserves its region under a short critical
// section, performs its copy with no lock held, then waits until every
// operation of its kind allocated before it has published, and only then
// publishes its own effect. Publish order therefore equals allocation order
// regardless of copy completion order, which is what keeps FIFO visibility
// intact when copies finish out of order.
//
// Waiting uses a single condition variable broadcast on every publish; each
// waiter rechecks its own condition on wakeup. The critical sections are
// offset arithmetic only and never block while held.
type parallelAccess[T any] struct {
	st        *storage[T]
	admission *semaphore.Weighted

	mu   sync.Mutex
	cond *sync.Cond

	// Shadow state: the buffer as it will be once every in-flight
	// operation has published. Space and content checks run against
	// these, not the authoritative fields, so concurrent allocations of
	// either kind see each other's reservations.
	dirtyHead   int
	dirtyTail   int
	dirtyLength int

	// Per-kind sequence counters fixing publish order.
	putSeq   uint64 // latest allocated put
	putNext  uint64 // next put sequence to publish
	takeSeq  uint64
	takeNext uint64

	// Pending operations in allocation order. The queue head is always
	// the next operation to publish for its kind.
	pendingPuts  *queue.Queue
	pendingTakes *queue.Queue

	// Cross-wait gate: while a resource-constrained allocation waits for
	// space or content, new allocations of its kind (and allocations that
	// would themselves be constrained) hold off until it is satisfied.
	gateHeld bool
	gateKind opKind

	closed bool
}

// pendingOp is one in-flight operation: created at allocation, consumed
// during execute, destroyed at publish.
type pendingOp struct {
	kind  opKind
	seq   uint64
	start int
	count int
}

func newParallelAccess[T any](st *storage[T], maxConcurrentOps int) *parallelAccess[T] {
	a := &parallelAccess[T]{
		st:           st,
		admission:    semaphore.NewWeighted(int64(maxConcurrentOps)),
		putNext:      1,
		takeNext:     1,
		pendingPuts:  queue.New(),
		pendingTakes: queue.New(),
	}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// waitLocked blocks on the condition variable until satisfied reports true,
// the buffer closes, or ctx is done. Must be called with the mutex held.
// Cancellation wakes the wait through a broadcast, following the usual
// cond-plus-context pattern.
func (a *parallelAccess[T]) waitLocked(ctx context.Context, satisfied func() bool) error {
	if satisfied() {
		return nil
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// The lock orders the broadcast after the waiter's ctx check,
			// so a cancellation arriving between that check and cond.Wait
			// cannot be missed.
			a.mu.Lock()
			a.cond.Broadcast()
			a.mu.Unlock()
		case <-done:
		}
	}()

	for !satisfied() {
		if a.closed {
			return errors.ErrBufferClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		a.cond.Wait()
	}
	return nil
}

// allocate reserves a region for one operation. Puts reserve at the shadow
// tail against free space; takes reserve at the shadow head against content.
// A constrained operation takes the gate, blocking new allocations that
// would compete with it, and waits for publishes to free its resource.
func (a *parallelAccess[T]) allocate(ctx context.Context, kind opKind, count int) (*pendingOp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.ErrBufferClosed
	}

	// A request larger than the whole array can never be satisfied; waiting
	// on it would block the gate forever.
	if count > a.st.capacity {
		if kind == opPut {
			return nil, errors.ErrCapacityExceeded
		}
		return nil, errors.ErrContentInsufficient
	}

	constrained := func() bool {
		if kind == opPut {
			return a.dirtyLength+count > a.st.capacity
		}
		return a.dirtyLength < count
	}

	// Allocations of the gated kind wait; opposite-kind allocations pass
	// through only if they are themselves unconstrained, since they are
	// exactly the operations that will free the gated one.
	err := a.waitLocked(ctx, func() bool {
		return !a.gateHeld || (kind != a.gateKind && !constrained())
	})
	if err != nil {
		return nil, err
	}

	if constrained() {
		a.gateHeld = true
		a.gateKind = kind
		err = a.waitLocked(ctx, func() bool { return !constrained() })
		a.gateHeld = false
		a.cond.Broadcast()
		if err != nil {
			return nil, err
		}
	}

	op := &pendingOp{kind: kind, count: count}
	if kind == opPut {
		op.start = a.dirtyTail
		a.dirtyTail = a.st.advance(a.dirtyTail, count)
		a.dirtyLength += count
		a.putSeq++
		op.seq = a.putSeq
		a.pendingPuts.Add(op)
	} else {
		op.start = a.dirtyHead
		a.dirtyHead = a.st.advance(a.dirtyHead, count)
		a.dirtyLength -= count
		a.takeSeq++
		op.seq = a.takeSeq
		a.pendingTakes.Add(op)
	}
	return op, nil
}

// publishPut waits for the put's turn, then commits its effect. The order
// wait is not cancellable: every allocated operation publishes, so the wait
// is bounded and successors never deadlock on a vanished predecessor.
//
// A short fill (source ran dry or the copy was cancelled) publishes what was
// obtained. The reservation is rolled back by the shortfall only when this
// put is the newest of its kind and no take has claimed the missing content;
// otherwise later reservations have already stacked behind the region, so
// the full region is published with the unfilled remainder zeroed.
func (a *parallelAccess[T]) publishPut(op *pendingOp, obtained int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for a.putNext != op.seq {
		a.cond.Wait()
	}

	commit := op.count
	if shortfall := op.count - obtained; shortfall > 0 {
		if op.seq == a.putSeq && a.dirtyLength >= shortfall {
			a.dirtyTail = (a.dirtyTail - shortfall%a.st.capacity + a.st.capacity) % a.st.capacity
			a.dirtyLength -= shortfall
			commit = obtained
		} else {
			a.st.zeroAt(a.st.advance(op.start, obtained), shortfall)
		}
	}

	a.st.tail = a.st.advance(op.start, commit)
	a.st.length += commit
	a.putNext++
	a.pendingPuts.Remove() // op is the queue head: publish order equals allocation order
	a.cond.Broadcast()
}

// publishTake waits for the take's turn, then commits. The full reserved
// region is always consumed; elements not delivered to a failing sink are
// lost, not replayed.
func (a *parallelAccess[T]) publishTake(op *pendingOp) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for a.takeNext != op.seq {
		a.cond.Wait()
	}

	a.st.head = a.st.advance(op.start, op.count)
	a.st.length -= op.count
	a.takeNext++
	a.pendingTakes.Remove()
	a.cond.Broadcast()
}

func (a *parallelAccess[T]) putMany(ctx context.Context, src []T, offset, count int) (int, error) {
	if err := a.admission.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer a.admission.Release(1)

	op, err := a.allocate(ctx, opPut, count)
	if err != nil {
		return 0, err
	}

	chunks := a.st.regions(op.start, count)
	obtained, fillErr := fillFromSlice(ctx, chunks, src[offset:offset+count])

	a.publishPut(op, obtained)
	return 0, fillErr
}

func (a *parallelAccess[T]) putFrom(ctx context.Context, src Source[T], count int, exact bool) (int, error) {
	if err := a.admission.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer a.admission.Release(1)

	op, err := a.allocate(ctx, opPut, count)
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

func (a *parallelAccess[T]) takeInto(ctx context.Context, dst []T, offset, count int) error {
	if err := a.admission.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.admission.Release(1)

	op, err := a.allocate(ctx, opTake, count)
	if err != nil {
		return err
	}

	chunks := a.st.regions(op.start, count)
	_, drainErr := drainToSlice(ctx, chunks, dst[offset:offset+count])

	a.publishTake(op)
	return drainErr
}

func (a *parallelAccess[T]) takeTo(ctx context.Context, sink Sink[T], count int) (int, error) {
	if err := a.admission.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer a.admission.Release(1)

	op, err := a.allocate(ctx, opTake, count)
	if err != nil {
		return 0, err
	}

	chunks := a.st.regions(op.start, count)
	delivered, sinkErr := drainToSink(ctx, chunks, sink)

	a.publishTake(op)
	return delivered, sinkErr
}

// skip has no execute phase: allocate and publish back to back, still
// honoring the per-kind publish order.
func (a *parallelAccess[T]) skip(ctx context.Context, count int) error {
	if err := a.admission.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.admission.Release(1)

	op, err := a.allocate(ctx, opTake, count)
	if err != nil {
		return err
	}
	a.publishTake(op)
	return nil
}

func (a *parallelAccess[T]) peek() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	if a.st.length == 0 {
		return zero, false
	}
	return a.st.items[a.st.head], true
}

func (a *parallelAccess[T]) occupied() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.length
}

// inFlight reports the number of allocated-but-unpublished operations.
func (a *parallelAccess[T]) inFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingPuts.Length() + a.pendingTakes.Length()
}

// quiescedLocked returns an error unless no operation is mid-flight.
func (a *parallelAccess[T]) quiescedLocked(operation string) error {
	if a.closed {
		return errors.ErrBufferClosed
	}
	if a.pendingPuts.Length() > 0 || a.pendingTakes.Length() > 0 {
		return errors.WrapInvalid(errors.ErrConcurrencyViolation,
			"ParallelBuffer", operation, "operations still in flight")
	}
	return nil
}

func (a *parallelAccess[T]) drainAll() ([]T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiescedLocked("drain"); err != nil {
		return nil, err
	}
	out := a.st.drain()
	a.dirtyHead = a.st.head
	a.dirtyTail = a.st.tail
	a.dirtyLength = 0
	a.cond.Broadcast()
	return out, nil
}

func (a *parallelAccess[T]) trim(newLength int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiescedLocked("trim"); err != nil {
		return err
	}
	if err := a.st.trim(newLength); err != nil {
		return err
	}
	a.dirtyTail = a.st.tail
	a.dirtyLength = a.st.length
	a.cond.Broadcast()
	return nil
}

func (a *parallelAccess[T]) reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quiescedLocked("reset"); err != nil {
		return err
	}
	a.st.reset()
	a.dirtyHead = 0
	a.dirtyTail = 0
	a.dirtyLength = 0
	a.cond.Broadcast()
	return nil
}

func (a *parallelAccess[T]) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.cond.Broadcast()
	return nil
}
