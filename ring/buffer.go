package ring

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/c360/ringkit/errors"
)

// AccessMode selects the concurrency discipline layered on the shared
// circular storage.
type AccessMode int

const (
	// AccessSequential assumes caller-serialized use. A re-entrancy guard
	// fails fast on accidental concurrent calls.
	AccessSequential AccessMode = iota

	// AccessExclusive allows one put and one take to overlap their copies,
	// serialized per kind by a single-flight restriction.
	AccessExclusive

	// AccessBoundedParallel admits up to MaxConcurrentOps operations at
	// once and publishes completions in allocation order.
	AccessBoundedParallel
)

// String returns a human-readable representation of the access mode.
func (m AccessMode) String() string {
	switch m {
	case AccessSequential:
		return "sequential"
	case AccessExclusive:
		return "exclusive"
	case AccessBoundedParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Buffer is a fixed-capacity circular buffer usable as a bounded FIFO queue
// between producers and consumers. The wrap-around arithmetic lives once in
// the storage layer; the configured access mode supplies the allocation,
// publication and ordering policy.
type Buffer[T any] struct {
	id     string
	st     *storage[T]
	policy accessPolicy[T]
	mode   AccessMode

	stats   *Statistics
	metrics *bufferMetrics
	logger  *slog.Logger
}

// New creates a buffer with the given capacity. Capacity must be at least 2.
// Stats are ALWAYS collected; Prometheus metrics are optional via WithMetrics().
func New[T any](capacity int, options ...Option[T]) (*Buffer[T], error) {
	opts := applyOptions(options...)

	if capacity < 2 {
		return nil, errors.Invalidf("Buffer", "New", "capacity must be >= 2, got %d", capacity)
	}
	if len(opts.initialData) > capacity {
		return nil, errors.Invalidf("Buffer", "New",
			"initial data length %d exceeds capacity %d", len(opts.initialData), capacity)
	}
	if opts.allowOverwrite && opts.mode != AccessSequential {
		return nil, errors.Invalidf("Buffer", "New",
			"overwrite requires sequential access, got %s", opts.mode)
	}
	if opts.maxConcurrentOps <= 0 {
		opts.maxConcurrentOps = runtime.GOMAXPROCS(0)
	}

	st := newStorage[T](capacity, opts.allowOverwrite)
	if len(opts.initialData) > 0 {
		if err := st.putMany(opts.initialData, 0, len(opts.initialData)); err != nil {
			return nil, errors.Wrap(err, "Buffer", "New", "loading initial data")
		}
	}

	var policy accessPolicy[T]
	switch opts.mode {
	case AccessSequential:
		policy = newSequentialAccess(st)
	case AccessExclusive:
		policy = newExclusiveAccess(st)
	case AccessBoundedParallel:
		policy = newParallelAccess(st, opts.maxConcurrentOps)
	default:
		return nil, errors.Invalidf("Buffer", "New", "unknown access mode %d", opts.mode)
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsName != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "Buffer", "New", "metrics registration")
		}
	}

	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Buffer[T]{
		id:      uuid.NewString(),
		st:      st,
		policy:  policy,
		mode:    opts.mode,
		stats:   NewStatistics(),
		metrics: metrics,
		logger:  logger,
	}
	b.logger = b.logger.With("buffer_id", b.id, "access_mode", b.mode.String())
	b.logger.Debug("buffer created",
		"capacity", capacity,
		"overwrite", opts.allowOverwrite,
		"initial_length", len(opts.initialData))

	return b, nil
}

// checkCount rejects negative counts before any state is touched.
func checkCount(method string, count int) error {
	if count < 0 {
		return errors.Invalidf("Buffer", method, "count must be >= 0, got %d", count)
	}
	return nil
}

// checkRange rejects out-of-bounds slice windows before any state is touched.
func checkRange(method string, sliceLen, offset, count int) error {
	if err := checkCount(method, count); err != nil {
		return err
	}
	if offset < 0 {
		return errors.Invalidf("Buffer", method, "offset must be >= 0, got %d", offset)
	}
	if offset+count > sliceLen {
		return errors.Invalidf("Buffer", method,
			"window [%d:%d) exceeds slice length %d", offset, offset+count, sliceLen)
	}
	return nil
}

// ID returns the buffer's unique identifier.
func (b *Buffer[T]) ID() string {
	return b.id
}

// Mode returns the buffer's access mode.
func (b *Buffer[T]) Mode() AccessMode {
	return b.mode
}

// Capacity returns the fixed element capacity.
func (b *Buffer[T]) Capacity() int {
	return b.st.capacity // immutable after construction
}

// OccupiedLength returns the number of published, unread elements.
func (b *Buffer[T]) OccupiedLength() int {
	return b.policy.occupied()
}

// SpareLength returns the remaining free capacity.
// OccupiedLength + SpareLength always equals Capacity.
func (b *Buffer[T]) SpareLength() int {
	return b.st.capacity - b.policy.occupied()
}

// IsOverwriteAllowed reports whether writes may evict the oldest elements.
func (b *Buffer[T]) IsOverwriteAllowed() bool {
	return b.st.allowOverwrite
}

// Stats returns buffer statistics (always available for observability).
func (b *Buffer[T]) Stats() *Statistics {
	return b.stats
}

// PutOne appends a single element.
func (b *Buffer[T]) PutOne(v T) error {
	return b.PutManyContext(context.Background(), []T{v}, 0, 1)
}

// PutMany appends count elements from src starting at offset.
func (b *Buffer[T]) PutMany(src []T, offset, count int) error {
	return b.PutManyContext(context.Background(), src, offset, count)
}

// PutManyContext is PutMany with cancellation for disciplines that may
// suspend on admission or space.
func (b *Buffer[T]) PutManyContext(ctx context.Context, src []T, offset, count int) error {
	if err := checkRange("PutMany", len(src), offset, count); err != nil {
		b.reject()
		return err
	}

	evicted, err := b.policy.putMany(ctx, src, offset, count)
	if err != nil {
		b.reject()
		return errors.Wrap(err, "Buffer", "PutMany", "write")
	}
	b.recordPut(evicted)
	return nil
}

// PutFrom fills exactly count elements from an external source. A source
// that runs dry early surfaces ErrEndOfSource; elements already obtained
// stay committed and the returned count reports them.
func (b *Buffer[T]) PutFrom(ctx context.Context, src Source[T], count int) (int, error) {
	return b.putFrom(ctx, src, count, true)
}

// PutFromUpTo is the best-effort variant of PutFrom: a short source is not
// an error, the obtained count is simply returned.
func (b *Buffer[T]) PutFromUpTo(ctx context.Context, src Source[T], count int) (int, error) {
	return b.putFrom(ctx, src, count, false)
}

func (b *Buffer[T]) putFrom(ctx context.Context, src Source[T], count int, exact bool) (int, error) {
	if err := checkCount("PutFrom", count); err != nil {
		b.reject()
		return 0, err
	}
	if src == nil {
		b.reject()
		return 0, errors.Invalidf("Buffer", "PutFrom", "source must not be nil")
	}

	obtained, err := b.policy.putFrom(ctx, src, count, exact)
	if obtained > 0 {
		b.recordPut(0)
	}
	if err != nil {
		if obtained == 0 {
			b.reject()
		}
		return obtained, errors.Wrap(err, "Buffer", "PutFrom", "source read")
	}
	return obtained, nil
}

// TakeOne removes and returns the oldest element.
func (b *Buffer[T]) TakeOne() (T, error) {
	var v T
	dst := []T{v}
	if err := b.TakeIntoContext(context.Background(), dst, 0, 1); err != nil {
		return v, err
	}
	return dst[0], nil
}

// TakeMany removes and returns count elements in a freshly allocated slice.
func (b *Buffer[T]) TakeMany(count int) ([]T, error) {
	return b.TakeManyContext(context.Background(), count)
}

// TakeManyContext is TakeMany with cancellation.
func (b *Buffer[T]) TakeManyContext(ctx context.Context, count int) ([]T, error) {
	if err := checkCount("TakeMany", count); err != nil {
		b.reject()
		return nil, err
	}
	out := make([]T, count)
	if err := b.TakeIntoContext(ctx, out, 0, count); err != nil {
		return nil, err
	}
	return out, nil
}

// TakeInto removes count elements into dst starting at offset.
func (b *Buffer[T]) TakeInto(dst []T, offset, count int) error {
	return b.TakeIntoContext(context.Background(), dst, offset, count)
}

// TakeIntoContext is TakeInto with cancellation.
func (b *Buffer[T]) TakeIntoContext(ctx context.Context, dst []T, offset, count int) error {
	if err := checkRange("TakeInto", len(dst), offset, count); err != nil {
		b.reject()
		return err
	}

	if err := b.policy.takeInto(ctx, dst, offset, count); err != nil {
		b.reject()
		return errors.Wrap(err, "Buffer", "TakeInto", "read")
	}
	b.recordTake()
	return nil
}

// TakeTo removes count elements into an external sink. Elements handed to
// the sink are consumed even if the sink later fails; the returned count
// reports what was delivered.
func (b *Buffer[T]) TakeTo(ctx context.Context, sink Sink[T], count int) (int, error) {
	if err := checkCount("TakeTo", count); err != nil {
		b.reject()
		return 0, err
	}
	if sink == nil {
		b.reject()
		return 0, errors.Invalidf("Buffer", "TakeTo", "sink must not be nil")
	}

	delivered, err := b.policy.takeTo(ctx, sink, count)
	if delivered > 0 || err == nil {
		b.recordTake()
	}
	if err != nil {
		if delivered == 0 {
			b.reject()
		}
		return delivered, errors.Wrap(err, "Buffer", "TakeTo", "sink write")
	}
	return delivered, nil
}

// Skip discards count elements without copying them out. The discarded
// elements remain physically present in storage until overwritten; use
// Reset to scrub storage entirely.
func (b *Buffer[T]) Skip(count int) error {
	return b.SkipContext(context.Background(), count)
}

// SkipContext is Skip with cancellation.
func (b *Buffer[T]) SkipContext(ctx context.Context, count int) error {
	if err := checkCount("Skip", count); err != nil {
		b.reject()
		return err
	}

	if err := b.policy.skip(ctx, count); err != nil {
		b.reject()
		return errors.Wrap(err, "Buffer", "Skip", "discard")
	}
	b.stats.Skip()
	b.updateOccupancy()
	if b.metrics != nil {
		b.metrics.recordSkip(b.policy.occupied(), b.st.capacity)
	}
	return nil
}

// Peek reads the oldest element without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	v, ok := b.policy.peek()
	b.stats.Peek()
	return v, ok
}

// DrainToArray removes and returns all published content.
func (b *Buffer[T]) DrainToArray() ([]T, error) {
	out, err := b.policy.drainAll()
	if err != nil {
		b.reject()
		return nil, errors.Wrap(err, "Buffer", "DrainToArray", "drain")
	}
	if len(out) > 0 {
		b.recordTake()
	}
	return out, nil
}

// TrimTo discards the newest elements so that exactly newLength remain.
// Shrink-only.
func (b *Buffer[T]) TrimTo(newLength int) error {
	if err := checkCount("TrimTo", newLength); err != nil {
		b.reject()
		return err
	}
	if err := b.policy.trim(newLength); err != nil {
		b.reject()
		return errors.Wrap(err, "Buffer", "TrimTo", "trim")
	}
	b.updateOccupancy()
	return nil
}

// Reset empties the buffer and zeroes its storage.
func (b *Buffer[T]) Reset() error {
	if err := b.policy.reset(); err != nil {
		b.reject()
		return errors.Wrap(err, "Buffer", "Reset", "reset")
	}
	b.updateOccupancy()
	b.logger.Debug("buffer reset")
	return nil
}

// Close marks the buffer closed and wakes any waiters. Subsequent
// operations fail with ErrBufferClosed.
func (b *Buffer[T]) Close() error {
	if err := b.policy.close(); err != nil {
		return errors.Wrap(err, "Buffer", "Close", "close")
	}
	b.logger.Debug("buffer closed")
	return nil
}

func (b *Buffer[T]) recordPut(evicted int) {
	b.stats.Put()
	if evicted > 0 {
		b.stats.Evict(evicted)
	}
	b.updateOccupancy()
	if b.metrics != nil {
		b.metrics.recordPut(b.policy.occupied(), b.st.capacity)
		if evicted > 0 {
			b.metrics.recordEvictions(evicted)
		}
	}
}

func (b *Buffer[T]) recordTake() {
	b.stats.Take()
	b.updateOccupancy()
	if b.metrics != nil {
		b.metrics.recordTake(b.policy.occupied(), b.st.capacity)
	}
}

func (b *Buffer[T]) reject() {
	b.stats.Reject()
	if b.metrics != nil {
		b.metrics.recordRejection()
	}
}

func (b *Buffer[T]) updateOccupancy() {
	b.stats.UpdateOccupied(int64(b.policy.occupied()))
}
