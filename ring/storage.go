package ring

import (
	"github.com/c360/ringkit/errors"
)

// storage is the backing store for every buffer variant: a fixed array plus
// head/tail offsets and the occupied length. It carries no synchronization;
// every access discipline layers its own protocol on top. All wrap-around
// arithmetic lives here so the access policies only deal in offsets.
type storage[T any] struct {
	items          []T
	capacity       int
	head           int // offset of the oldest unread element
	tail           int // offset where the next element will be written
	length         int // number of valid unread elements
	allowOverwrite bool
}

func newStorage[T any](capacity int, allowOverwrite bool) *storage[T] {
	return &storage[T]{
		items:          make([]T, capacity),
		capacity:       capacity,
		allowOverwrite: allowOverwrite,
	}
}

// regions returns the backing subslices covering count elements starting at
// offset, wrapping at the array end. At most two contiguous chunks are ever
// needed: offset to the end of the array, then the remainder from index 0.
func (s *storage[T]) regions(offset, count int) [][]T {
	if count <= 0 {
		return nil
	}
	first := s.capacity - offset
	if count <= first {
		return [][]T{s.items[offset : offset+count]}
	}
	return [][]T{s.items[offset:], s.items[:count-first]}
}

// writeAt copies src into the ring starting at offset, wrapping as needed.
func (s *storage[T]) writeAt(offset int, src []T) {
	copied := 0
	for _, chunk := range s.regions(offset, len(src)) {
		copied += copy(chunk, src[copied:])
	}
}

// readAt copies count elements starting at offset into dst, wrapping as needed.
func (s *storage[T]) readAt(offset int, dst []T) {
	copied := 0
	for _, chunk := range s.regions(offset, len(dst)) {
		copied += copy(dst[copied:], chunk)
	}
}

// zeroAt overwrites count elements starting at offset with zero values.
// Used to scrub unfilled remainders of short allocations.
func (s *storage[T]) zeroAt(offset, count int) {
	var zero T
	for _, chunk := range s.regions(offset, count) {
		for i := range chunk {
			chunk[i] = zero
		}
	}
}

// wrap normalizes an offset advanced past the array end.
func (s *storage[T]) wrap(offset int) int {
	if offset >= s.capacity {
		return offset - s.capacity
	}
	return offset
}

// advance moves offset forward by count, wrapping at capacity.
func (s *storage[T]) advance(offset, count int) int {
	return (offset + count) % s.capacity
}

func (s *storage[T]) spare() int {
	return s.capacity - s.length
}

// evict discards the count oldest elements to make room for a write. The
// eviction is computed as a single step so length is never misreported
// between chunks.
func (s *storage[T]) evict(count int) {
	if count <= 0 {
		return
	}
	if count > s.length {
		count = s.length
	}
	s.head = s.advance(s.head, count)
	s.length -= count
}

// putOne appends a single element.
func (s *storage[T]) putOne(v T) error {
	return s.putMany([]T{v}, 0, 1)
}

// putMany appends count elements from src starting at offset. When the write
// would exceed capacity and overwrite is allowed, the oldest excess elements
// are evicted first; otherwise the buffer is left unchanged and
// ErrCapacityExceeded is returned. Returns the number of oldest elements
// evicted to make room.
func (s *storage[T]) putMany(src []T, offset, count int) error {
	_, err := s.putManyEvicting(src, offset, count)
	return err
}

func (s *storage[T]) putManyEvicting(src []T, offset, count int) (evicted int, err error) {
	if count == 0 {
		return 0, nil
	}

	excess := s.length + count - s.capacity
	if excess > 0 {
		if !s.allowOverwrite {
			return 0, errors.ErrCapacityExceeded
		}
		// A source longer than the whole array: only its newest capacity
		// elements can survive, so skip the rest up front.
		if count > s.capacity {
			skip := count - s.capacity
			offset += skip
			count = s.capacity
			evicted = skip
		}
		toEvict := s.length + count - s.capacity
		if toEvict > 0 {
			s.evict(toEvict)
			evicted += toEvict
		}
	}

	s.writeAt(s.tail, src[offset:offset+count])
	s.tail = s.advance(s.tail, count)
	s.length += count
	return evicted, nil
}

// takeOne removes and returns the oldest element.
func (s *storage[T]) takeOne() (T, error) {
	var v T
	dst := []T{v}
	if err := s.takeInto(dst, 0, 1); err != nil {
		return v, err
	}
	return dst[0], nil
}

// takeInto removes count elements into dst starting at offset.
func (s *storage[T]) takeInto(dst []T, offset, count int) error {
	if count > s.length {
		return errors.ErrContentInsufficient
	}
	s.readAt(s.head, dst[offset:offset+count])
	s.head = s.advance(s.head, count)
	s.length -= count
	return nil
}

// takeMany removes and returns count elements in a freshly allocated slice.
func (s *storage[T]) takeMany(count int) ([]T, error) {
	if count > s.length {
		return nil, errors.ErrContentInsufficient
	}
	out := make([]T, count)
	if err := s.takeInto(out, 0, count); err != nil {
		return nil, err
	}
	return out, nil
}

// skip discards count elements without copying them out. The skipped elements
// remain physically present in the array until overwritten; reset scrubs the
// whole array for callers that need that.
func (s *storage[T]) skip(count int) error {
	if count > s.length {
		return errors.ErrContentInsufficient
	}
	s.head = s.advance(s.head, count)
	s.length -= count
	return nil
}

// trim discards the newest elements so that exactly newLength remain.
// Shrink-only; growing is not possible without data.
func (s *storage[T]) trim(newLength int) error {
	if newLength > s.length {
		return errors.ErrInvalidArgument
	}
	drop := s.length - newLength
	s.tail = (s.tail - drop%s.capacity + s.capacity) % s.capacity
	s.length = newLength
	return nil
}

// reset empties the buffer and zeroes the whole backing array.
func (s *storage[T]) reset() {
	s.zeroAt(0, s.capacity)
	s.head = 0
	s.tail = 0
	s.length = 0
}

// drain removes and returns all content.
func (s *storage[T]) drain() []T {
	out, _ := s.takeMany(s.length)
	return out
}
