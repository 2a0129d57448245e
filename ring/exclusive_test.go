package ring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/ringkit/errors"
)

func newExclusiveBuffer(t *testing.T, capacity int) *Buffer[int] {
	t.Helper()
	buf, err := New[int](capacity, WithAccessMode[int](AccessExclusive))
	require.NoError(t, err)
	return buf
}

func TestExclusiveSingleFlightPerKind(t *testing.T) {
	buf := newExclusiveBuffer(t, 8)

	src := newGatedSource([]int{11, 12, 13})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 3)
		done <- err
	}()
	<-src.entered

	// Second put while one is mid-flight: single-flight violation
	err := buf.PutOne(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrConcurrencyViolation)

	close(src.release)
	require.NoError(t, <-done)

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 13}, out)
}

func TestExclusivePutAndTakeOverlap(t *testing.T) {
	buf := newExclusiveBuffer(t, 8)
	require.NoError(t, buf.PutMany([]int{1, 2}, 0, 2))

	src := newGatedSource([]int{11, 12, 13})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 3)
		done <- err
	}()
	<-src.entered

	// A take may run while the put's copy is still in flight: the put
	// reserved space optimistically, the take consumes published content.
	v, err := buf.TakeOne()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	close(src.release)
	require.NoError(t, <-done)

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 11, 12, 13}, out)
}

func TestExclusiveSpaceCheckedAgainstShadowState(t *testing.T) {
	buf := newExclusiveBuffer(t, 4)
	require.NoError(t, buf.PutMany([]int{1, 2}, 0, 2))

	src := newGatedSource([]int{3, 4})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 2)
		done <- err
	}()
	<-src.entered

	// The in-flight put reserved the remaining space, so the shadow
	// length is already 4 even though only 2 elements are published.
	assert.Equal(t, 2, buf.OccupiedLength())

	close(src.release)
	require.NoError(t, <-done)
	assert.Equal(t, 4, buf.OccupiedLength())
}

func TestExclusiveShortSourceRollsBack(t *testing.T) {
	buf := newExclusiveBuffer(t, 8)

	// Source dies after 2 of 5: reservation shrinks to what was obtained
	n, err := buf.PutFrom(context.Background(), NewSliceSource([]int{1, 2}), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrEndOfSource)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, buf.OccupiedLength())

	// The freed space is reusable immediately
	require.NoError(t, buf.PutMany([]int{3, 4, 5, 6, 7, 8}, 0, 6))
	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, out)
}

func TestExclusiveShortPutWithDeepTakeZeroFills(t *testing.T) {
	buf := newExclusiveBuffer(t, 8)
	require.NoError(t, buf.PutMany([]int{1, 2}, 0, 2))

	// Put of 4 will only deliver 2 before the source dies.
	src := newGatedSource([]int{3, 4})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 4)
		done <- err
	}()
	<-src.entered

	// The take reaches past the published length into the put's reserved
	// region and publishes first. The reservation can no longer shrink:
	// the shadow length stops covering the put's shortfall.
	out, err := buf.TakeMany(5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out[:2])

	close(src.release)
	err = <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrEndOfSource)

	// The full region is published with the remainder zeroed; the length
	// invariants survive the interleaving.
	occupied := buf.OccupiedLength()
	assert.GreaterOrEqual(t, occupied, 0)
	assert.Equal(t, buf.Capacity(), occupied+buf.SpareLength())
	assert.Equal(t, 1, occupied)

	rest, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rest)

	// The buffer stays fully usable afterward.
	require.NoError(t, buf.PutMany([]int{5, 6, 7, 8, 9, 10, 11, 12}, 0, 8))
}

func TestExclusiveCapacityCheck(t *testing.T) {
	buf := newExclusiveBuffer(t, 4)
	require.NoError(t, buf.PutMany([]int{1, 2, 3}, 0, 3))

	err := buf.PutMany([]int{4, 5}, 0, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrCapacityExceeded)

	_, err = buf.TakeMany(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrContentInsufficient)
}

func TestExclusiveDrainRequiresQuiescence(t *testing.T) {
	buf := newExclusiveBuffer(t, 8)

	src := newGatedSource([]int{1})
	done := make(chan error, 1)
	go func() {
		_, err := buf.PutFrom(context.Background(), src, 1)
		done <- err
	}()
	<-src.entered

	_, err := buf.DrainToArray()
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrConcurrencyViolation)

	close(src.release)
	require.NoError(t, <-done)

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, out)
}
