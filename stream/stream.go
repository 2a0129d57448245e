// Package stream maps byte-stream style I/O onto a ring.Buffer[byte].
//
// The adapter implements io.Reader, io.Writer, io.Seeker and io.Closer.
// Seeking is forward-only (it discards bytes, like Skip); Truncate is
// shrink-only; Sync is a no-op; Close resets the underlying buffer.
package stream

import (
	"io"

	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/ring"
)

// Stream adapts a ring buffer to the standard byte-stream interfaces.
// Concurrency follows the underlying buffer's access mode; the adapter adds
// no synchronization of its own.
type Stream struct {
	buf *ring.Buffer[byte]
}

var (
	_ io.Reader = (*Stream)(nil)
	_ io.Writer = (*Stream)(nil)
	_ io.Seeker = (*Stream)(nil)
	_ io.Closer = (*Stream)(nil)
)

// New wraps an existing buffer in a stream adapter.
func New(buf *ring.Buffer[byte]) *Stream {
	return &Stream{buf: buf}
}

// Buffer returns the underlying ring buffer.
func (s *Stream) Buffer() *ring.Buffer[byte] {
	return s.buf
}

// Len returns the number of unread bytes.
func (s *Stream) Len() int {
	return s.buf.OccupiedLength()
}

// Cap returns the buffer capacity.
func (s *Stream) Cap() int {
	return s.buf.Capacity()
}

// Read copies up to len(p) bytes out of the buffer, best effort. An empty
// buffer reports io.EOF, matching bytes.Buffer semantics.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := s.buf.OccupiedLength()
	if n == 0 {
		return 0, io.EOF
	}
	if n > len(p) {
		n = len(p)
	}

	if err := s.buf.TakeInto(p, 0, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Write appends p to the buffer. A write that does not fit fails with
// ErrCapacityExceeded (unless the buffer allows overwrite) and is reported
// as a short write of zero bytes.
func (s *Stream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.buf.PutMany(p, 0, len(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Seek advances the read position by discarding bytes. Only forward seeks
// relative to the current position are supported; everything else fails
// with ErrInvalidArgument.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekCurrent || offset < 0 {
		return 0, errors.Invalidf("Stream", "Seek",
			"only forward seeks from the current position are supported")
	}
	if offset == 0 {
		return 0, nil
	}
	if err := s.buf.Skip(int(offset)); err != nil {
		return 0, err
	}
	return offset, nil
}

// Truncate discards the newest bytes so that exactly n remain. Growing the
// stream is not possible; n larger than the unread length fails with
// ErrInvalidArgument.
func (s *Stream) Truncate(n int64) error {
	if n < 0 {
		return errors.Invalidf("Stream", "Truncate", "length must be >= 0, got %d", n)
	}
	return s.buf.TrimTo(int(n))
}

// Sync is a no-op: the buffer is memory-backed and always consistent.
func (s *Stream) Sync() error {
	return nil
}

// Close resets the underlying buffer, zeroing its storage.
func (s *Stream) Close() error {
	return s.buf.Reset()
}
