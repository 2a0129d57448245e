package ring

import (
	"context"

	"github.com/c360/ringkit/errors"
)

// opKind distinguishes the two operation families. Each access discipline
// tracks puts and takes independently.
type opKind int

const (
	opPut opKind = iota
	opTake
)

func (k opKind) String() string {
	if k == opPut {
		return "put"
	}
	return "take"
}

// accessPolicy supplies the allocate/execute/publish discipline for one
// buffer. The wrap-around arithmetic lives once in storage; a policy only
// decides how operations are admitted, serialized and made visible.
//
// Argument validation (negative counts, slice bounds) happens in Buffer
// before a policy is invoked, so policies only enforce capacity, content
// and concurrency rules.
type accessPolicy[T any] interface {
	// putMany copies count elements from src[offset:] into the buffer.
	// Returns the number of oldest elements evicted by overwrite.
	putMany(ctx context.Context, src []T, offset, count int) (evicted int, err error)

	// putFrom fills count elements from an external source. When exact is
	// true a short source surfaces ErrEndOfSource; otherwise the obtained
	// count is returned without error. Elements already copied are kept.
	putFrom(ctx context.Context, src Source[T], count int, exact bool) (obtained int, err error)

	// takeInto removes count elements into dst[offset:].
	takeInto(ctx context.Context, dst []T, offset, count int) error

	// takeTo removes count elements into an external sink.
	takeTo(ctx context.Context, sink Sink[T], count int) (delivered int, err error)

	// skip discards count elements without copying.
	skip(ctx context.Context, count int) error

	// peek reads the oldest element without removing it.
	peek() (T, bool)

	// occupied reports the published content length.
	occupied() int

	// drainAll atomically removes and returns all published content.
	drainAll() ([]T, error)

	// trim discards the newest elements down to newLength (shrink-only).
	trim(newLength int) error

	// reset empties the buffer and zeroes its storage.
	reset() error

	// close marks the buffer closed and wakes any waiters.
	close() error
}

// fillFromSource reads from src into the reserved region chunks until the
// region is full or the source runs dry. Cancellation is checked at each
// chunk boundary; elements already copied stay copied.
func fillFromSource[T any](ctx context.Context, chunks [][]T, src Source[T]) (int, error) {
	obtained := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return obtained, err
		}
		filled := 0
		for filled < len(chunk) {
			n, err := src.ReadItems(ctx, chunk[filled:])
			filled += n
			obtained += n
			if err != nil {
				return obtained, err
			}
			if n == 0 {
				return obtained, errors.ErrEndOfSource
			}
		}
	}
	return obtained, nil
}

// fillFromSlice copies src into the reserved region chunks, checking
// cancellation at chunk boundaries.
func fillFromSlice[T any](ctx context.Context, chunks [][]T, src []T) (int, error) {
	copied := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		copied += copy(chunk, src[copied:])
	}
	return copied, nil
}

// drainToSlice copies the reserved region chunks out into dst.
func drainToSlice[T any](ctx context.Context, chunks [][]T, dst []T) (int, error) {
	copied := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		copied += copy(dst[copied:], chunk)
	}
	return copied, nil
}

// drainToSink writes the reserved region chunks out to a sink. A short sink
// write is surfaced as a transient error carrying the delivered count.
func drainToSink[T any](ctx context.Context, chunks [][]T, sink Sink[T]) (int, error) {
	delivered := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		sent := 0
		for sent < len(chunk) {
			n, err := sink.WriteItems(ctx, chunk[sent:])
			sent += n
			delivered += n
			if err != nil {
				return delivered, err
			}
			if n == 0 {
				return delivered, errors.WrapTransient(
					errors.ErrEndOfSource, "Buffer", "TakeTo", "sink accepted no elements")
			}
		}
	}
	return delivered, nil
}
