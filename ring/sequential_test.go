package ring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/ringkit/errors"
)

func newSequentialBuffer(t *testing.T, capacity int, opts ...Option[int]) *Buffer[int] {
	t.Helper()
	buf, err := New[int](capacity, append([]Option[int]{WithAccessMode[int](AccessSequential)}, opts...)...)
	require.NoError(t, err)
	return buf
}

func TestSequentialReentrancyGuard(t *testing.T) {
	buf := newSequentialBuffer(t, 8)

	src := newGatedSource([]int{1, 2, 3})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 3)
		done <- err
	}()
	<-src.entered

	// A second put while the first is mid-flight is a caller bug and must
	// fail fast rather than corrupt offsets.
	err := buf.PutOne(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrConcurrencyViolation)

	close(src.release)
	require.NoError(t, <-done)

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestSequentialPutFromOverwrite(t *testing.T) {
	buf := newSequentialBuffer(t, 4, WithOverwrite[int]())

	require.NoError(t, buf.PutMany([]int{1, 2, 3}, 0, 3))

	// Streaming 3 more evicts the 2 oldest before the copy
	n, err := buf.PutFrom(context.Background(), NewSliceSource([]int{4, 5, 6}), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5, 6}, out)
}

func TestSequentialPutFromLargerThanCapacity(t *testing.T) {
	buf := newSequentialBuffer(t, 4, WithOverwrite[int]())

	_, err := buf.PutFrom(context.Background(), NewSliceSource([]int{1, 2, 3, 4, 5}), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrCapacityExceeded)
	assert.Equal(t, 0, buf.OccupiedLength())
}

func TestSequentialPutFromNoSpace(t *testing.T) {
	buf := newSequentialBuffer(t, 4)
	require.NoError(t, buf.PutMany([]int{1, 2, 3}, 0, 3))

	_, err := buf.PutFrom(context.Background(), NewSliceSource([]int{4, 5}), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrCapacityExceeded)
	assert.Equal(t, 3, buf.OccupiedLength(), "rejected write must not mutate state")
}

func TestSequentialTakeToPartialSinkConsumes(t *testing.T) {
	buf := newSequentialBuffer(t, 8)
	require.NoError(t, buf.PutMany([]int{1, 2, 3, 4}, 0, 4))

	// Delivered elements are consumed even though the sink died mid-way.
	sink := &failingSink{acceptBeforeError: 2}
	delivered, err := buf.TakeTo(context.Background(), sink, 4)
	require.Error(t, err)
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []int{1, 2}, sink.Items)
	assert.Equal(t, 2, buf.OccupiedLength())
}
