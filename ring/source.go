package ring

import (
	"context"
	"io"

	"github.com/c360/ringkit/errors"
)

// Source supplies elements for PutFrom. Implementations return the number of
// elements placed into dst; a short count with a nil error is allowed and the
// buffer will keep reading. Exhaustion is reported as ErrEndOfSource (io.EOF
// from byte readers is translated by ReaderSource).
type Source[T any] interface {
	ReadItems(ctx context.Context, dst []T) (int, error)
}

// Sink consumes elements for TakeTo. Implementations return the number of
// elements accepted from src; short writes are treated as sink failures.
type Sink[T any] interface {
	WriteItems(ctx context.Context, src []T) (int, error)
}

// SliceSource is a Source backed by an in-memory slice. Reads consume the
// slice front to back and report ErrEndOfSource once it is spent.
type SliceSource[T any] struct {
	items []T
}

// NewSliceSource returns a Source that yields the given items in order.
func NewSliceSource[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// ReadItems implements Source.
func (s *SliceSource[T]) ReadItems(_ context.Context, dst []T) (int, error) {
	if len(s.items) == 0 {
		return 0, errors.ErrEndOfSource
	}
	n := copy(dst, s.items)
	s.items = s.items[n:]
	return n, nil
}

// SliceSink is a Sink that appends everything it receives to an in-memory
// slice, mostly useful in tests and for draining into caller-owned storage.
type SliceSink[T any] struct {
	Items []T
}

// WriteItems implements Sink.
func (s *SliceSink[T]) WriteItems(_ context.Context, src []T) (int, error) {
	s.Items = append(s.Items, src...)
	return len(src), nil
}

// ReaderSource adapts an io.Reader into a Source[byte]. io.EOF is translated
// to ErrEndOfSource so byte and element buffers share one error taxonomy.
type ReaderSource struct {
	R io.Reader
}

// ReadItems implements Source.
func (r ReaderSource) ReadItems(_ context.Context, dst []byte) (int, error) {
	n, err := r.R.Read(dst)
	if err == io.EOF {
		if n > 0 {
			return n, nil
		}
		return 0, errors.ErrEndOfSource
	}
	return n, err
}

// WriterSink adapts an io.Writer into a Sink[byte].
type WriterSink struct {
	W io.Writer
}

// WriteItems implements Sink.
func (w WriterSink) WriteItems(_ context.Context, src []byte) (int, error) {
	return w.W.Write(src)
}
