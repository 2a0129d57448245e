package ring

import (
	"context"
	"sync/atomic"

	"github.com/c360/ringkit/errors"
)

// sequentialAccess is the caller-serialized discipline: a thin pass-through
// to storage with no real synchronization. A pair of re-entrancy guards
// fails fast with ErrConcurrencyViolation when two puts or two takes are
// accidentally in flight at once, which catches concurrent misuse without
// pretending to support it.
type sequentialAccess[T any] struct {
	st       *storage[T]
	putBusy  atomic.Bool
	takeBusy atomic.Bool
	closed   atomic.Bool
}

func newSequentialAccess[T any](st *storage[T]) *sequentialAccess[T] {
	return &sequentialAccess[T]{st: st}
}

func (a *sequentialAccess[T]) enter(kind opKind) (release func(), err error) {
	if a.closed.Load() {
		return nil, errors.ErrBufferClosed
	}
	guard := &a.putBusy
	if kind == opTake {
		guard = &a.takeBusy
	}
	if !guard.CompareAndSwap(false, true) {
		return nil, errors.WrapInvalid(errors.ErrConcurrencyViolation,
			"SequentialBuffer", kind.String(), "overlapping call on caller-serialized buffer")
	}
	return func() { guard.Store(false) }, nil
}

// enterBoth serializes operations that touch both ends (reset, drain, trim).
func (a *sequentialAccess[T]) enterBoth() (release func(), err error) {
	releasePut, err := a.enter(opPut)
	if err != nil {
		return nil, err
	}
	releaseTake, err := a.enter(opTake)
	if err != nil {
		releasePut()
		return nil, err
	}
	return func() {
		releaseTake()
		releasePut()
	}, nil
}

func (a *sequentialAccess[T]) putMany(_ context.Context, src []T, offset, count int) (int, error) {
	release, err := a.enter(opPut)
	if err != nil {
		return 0, err
	}
	defer release()
	return a.st.putManyEvicting(src, offset, count)
}

func (a *sequentialAccess[T]) putFrom(ctx context.Context, src Source[T], count int, exact bool) (int, error) {
	release, err := a.enter(opPut)
	if err != nil {
		return 0, err
	}
	defer release()

	// Streaming more than the whole array in one call is unsupported even
	// with overwrite: the source would overwrite its own fresh elements.
	if count > a.st.capacity {
		return 0, errors.ErrCapacityExceeded
	}
	if count > a.st.spare() {
		excess := count - a.st.spare()
		if !a.st.allowOverwrite {
			return 0, errors.ErrCapacityExceeded
		}
		a.st.evict(excess)
	}

	chunks := a.st.regions(a.st.tail, count)
	obtained, fillErr := fillFromSource(ctx, chunks, src)

	// Elements already copied are committed even on a short read; the
	// buffer state for obtained elements is well defined either way.
	a.st.tail = a.st.advance(a.st.tail, obtained)
	a.st.length += obtained

	if fillErr != nil {
		if !exact && errors.Is(fillErr, errors.ErrEndOfSource) {
			return obtained, nil
		}
		return obtained, fillErr
	}
	return obtained, nil
}

func (a *sequentialAccess[T]) takeInto(_ context.Context, dst []T, offset, count int) error {
	release, err := a.enter(opTake)
	if err != nil {
		return err
	}
	defer release()
	return a.st.takeInto(dst, offset, count)
}

func (a *sequentialAccess[T]) takeTo(ctx context.Context, sink Sink[T], count int) (int, error) {
	release, err := a.enter(opTake)
	if err != nil {
		return 0, err
	}
	defer release()

	if count > a.st.length {
		return 0, errors.ErrContentInsufficient
	}

	chunks := a.st.regions(a.st.head, count)
	delivered, sinkErr := drainToSink(ctx, chunks, sink)

	// Delivered elements are consumed; an element handed to the sink is
	// gone from the buffer regardless of later sink failures.
	a.st.head = a.st.advance(a.st.head, delivered)
	a.st.length -= delivered

	return delivered, sinkErr
}

func (a *sequentialAccess[T]) skip(_ context.Context, count int) error {
	release, err := a.enter(opTake)
	if err != nil {
		return err
	}
	defer release()
	return a.st.skip(count)
}

func (a *sequentialAccess[T]) peek() (T, bool) {
	var zero T
	if a.st.length == 0 {
		return zero, false
	}
	return a.st.items[a.st.head], true
}

func (a *sequentialAccess[T]) occupied() int {
	return a.st.length
}

func (a *sequentialAccess[T]) drainAll() ([]T, error) {
	release, err := a.enterBoth()
	if err != nil {
		return nil, err
	}
	defer release()
	return a.st.drain(), nil
}

func (a *sequentialAccess[T]) trim(newLength int) error {
	release, err := a.enterBoth()
	if err != nil {
		return err
	}
	defer release()
	return a.st.trim(newLength)
}

func (a *sequentialAccess[T]) reset() error {
	release, err := a.enterBoth()
	if err != nil {
		return err
	}
	defer release()
	a.st.reset()
	return nil
}

func (a *sequentialAccess[T]) close() error {
	a.closed.Store(true)
	return nil
}
