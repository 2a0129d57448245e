package ring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/ringkit/errors"
)

// allModes runs a subtest against each access discipline, since the public
// contract is identical across them for serialized use.
func allModes(t *testing.T, fn func(t *testing.T, mode AccessMode)) {
	t.Helper()
	for _, mode := range []AccessMode{AccessSequential, AccessExclusive, AccessBoundedParallel} {
		t.Run(mode.String(), func(t *testing.T) {
			fn(t, mode)
		})
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New[int](1)
	assert.ErrorIs(t, err, cerrors.ErrInvalidArgument)

	_, err = New[int](0)
	assert.ErrorIs(t, err, cerrors.ErrInvalidArgument)

	_, err = New[int](2, WithInitialData([]int{1, 2, 3}))
	assert.ErrorIs(t, err, cerrors.ErrInvalidArgument)

	// Overwrite is a sequential-only feature
	_, err = New[int](4, WithOverwrite[int](), WithAccessMode[int](AccessExclusive))
	assert.ErrorIs(t, err, cerrors.ErrInvalidArgument)

	buf, err := New[int](2)
	require.NoError(t, err)
	assert.Equal(t, AccessExclusive, buf.Mode())
	assert.NotEmpty(t, buf.ID())
}

func TestInitialData(t *testing.T) {
	buf, err := New[int](4, WithInitialData([]int{1, 2, 3}))
	require.NoError(t, err)

	assert.Equal(t, 3, buf.OccupiedLength())
	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestFIFORoundTrip(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](16, WithAccessMode[int](mode))
		require.NoError(t, err)

		data := []int{10, 20, 30, 40, 50}
		require.NoError(t, buf.PutMany(data, 0, len(data)))

		out, err := buf.TakeMany(len(data))
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})
}

func TestOccupiedPlusSpareEqualsCapacity(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](8, WithAccessMode[int](mode))
		require.NoError(t, err)

		check := func() {
			assert.Equal(t, buf.Capacity(), buf.OccupiedLength()+buf.SpareLength())
		}

		check()
		require.NoError(t, buf.PutMany([]int{1, 2, 3}, 0, 3))
		check()
		require.NoError(t, buf.Skip(1))
		check()
		_, err = buf.TakeMany(2)
		require.NoError(t, err)
		check()
	})
}

func TestWrapAroundFIFO(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](8, WithAccessMode[int](mode))
		require.NoError(t, err)

		require.NoError(t, buf.PutMany([]int{1, 2, 3, 4, 5, 6}, 0, 6))
		out, err := buf.TakeMany(4)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, out)

		require.NoError(t, buf.PutMany([]int{7, 8, 9, 10, 11, 12}, 0, 6))

		out, err = buf.DrainToArray()
		require.NoError(t, err)
		assert.Equal(t, []int{5, 6, 7, 8, 9, 10, 11, 12}, out)
	})
}

func TestOverwriteSemantics(t *testing.T) {
	buf, err := New[int](4,
		WithAccessMode[int](AccessSequential),
		WithOverwrite[int]())
	require.NoError(t, err)
	assert.True(t, buf.IsOverwriteAllowed())

	require.NoError(t, buf.PutMany([]int{1, 2, 3, 4}, 0, 4))
	require.NoError(t, buf.PutMany([]int{5, 6}, 0, 2))

	out, err := buf.DrainToArray()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5, 6}, out)
	assert.Equal(t, int64(2), buf.Stats().Evictions())
}

func TestOverwriteDisallowed(t *testing.T) {
	// Parallel mode waits for space rather than failing, so the fail-fast
	// contract only holds for the serialized disciplines.
	for _, mode := range []AccessMode{AccessSequential, AccessExclusive} {
		t.Run(mode.String(), func(t *testing.T) {
			buf, err := New[int](4, WithAccessMode[int](mode))
			require.NoError(t, err)
			assert.False(t, buf.IsOverwriteAllowed())

			require.NoError(t, buf.PutMany([]int{1, 2, 3, 4}, 0, 4))

			err = buf.PutMany([]int{5, 6}, 0, 2)
			require.Error(t, err)
			assert.ErrorIs(t, err, cerrors.ErrCapacityExceeded)

			out, err := buf.DrainToArray()
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3, 4}, out)
		})
	}
}

func TestSkipMatchesTakeAndDiscard(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		mk := func() *Buffer[int] {
			buf, err := New[int](8, WithAccessMode[int](mode))
			require.NoError(t, err)
			require.NoError(t, buf.PutMany([]int{1, 2, 3, 4, 5, 6}, 0, 6))
			return buf
		}

		skipped := mk()
		require.NoError(t, skipped.Skip(3))
		skippedRest, err := skipped.DrainToArray()
		require.NoError(t, err)

		taken := mk()
		_, err = taken.TakeMany(3)
		require.NoError(t, err)
		takenRest, err := taken.DrainToArray()
		require.NoError(t, err)

		assert.Equal(t, takenRest, skippedRest)
	})
}

func TestInvalidArguments(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](8, WithAccessMode[int](mode))
		require.NoError(t, err)
		require.NoError(t, buf.PutMany([]int{1, 2, 3}, 0, 3))

		cases := []struct {
			name string
			op   func() error
		}{
			{"negative put count", func() error { return buf.PutMany([]int{1}, 0, -1) }},
			{"negative put offset", func() error { return buf.PutMany([]int{1}, -1, 1) }},
			{"put window too large", func() error { return buf.PutMany([]int{1, 2}, 1, 2) }},
			{"negative take count", func() error { _, err := buf.TakeMany(-1); return err }},
			{"take dst too small", func() error { return buf.TakeInto(make([]int, 1), 0, 2) }},
			{"negative skip", func() error { return buf.Skip(-1) }},
			{"negative trim", func() error { return buf.TrimTo(-1) }},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.op()
				require.Error(t, err)
				assert.ErrorIs(t, err, cerrors.ErrInvalidArgument)
				// Rejected before any state mutation
				assert.Equal(t, 3, buf.OccupiedLength())
			})
		}
	})
}

func TestPeek(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](4, WithAccessMode[int](mode))
		require.NoError(t, err)

		_, ok := buf.Peek()
		assert.False(t, ok)

		require.NoError(t, buf.PutMany([]int{7, 8}, 0, 2))

		v, ok := buf.Peek()
		assert.True(t, ok)
		assert.Equal(t, 7, v)
		assert.Equal(t, 2, buf.OccupiedLength(), "peek must not consume")
	})
}

func TestResetZeroesStorage(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[byte](4, WithAccessMode[byte](mode))
		require.NoError(t, err)

		require.NoError(t, buf.PutMany([]byte{0xFF, 0xFF}, 0, 2))
		require.NoError(t, buf.Reset())

		assert.Equal(t, 0, buf.OccupiedLength())
		assert.Equal(t, []byte{0, 0, 0, 0}, buf.st.items)
	})
}

func TestPutFromExactAndBestEffort(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		ctx := context.Background()

		buf, err := New[int](8, WithAccessMode[int](mode))
		require.NoError(t, err)

		// Exact read fully satisfied
		n, err := buf.PutFrom(ctx, NewSliceSource([]int{1, 2, 3, 4}), 4)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		// Exact read against a short source: obtained elements committed,
		// shortfall surfaced
		n, err = buf.PutFrom(ctx, NewSliceSource([]int{5, 6}), 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, cerrors.ErrEndOfSource)
		assert.Equal(t, 2, n)
		assert.Equal(t, 6, buf.OccupiedLength())

		// Best-effort read against a short source is not an error
		n, err = buf.PutFromUpTo(ctx, NewSliceSource([]int{7}), 2)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		out, err := buf.DrainToArray()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, out)
	})
}

func TestTakeToSink(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		ctx := context.Background()

		buf, err := New[int](8, WithAccessMode[int](mode))
		require.NoError(t, err)
		require.NoError(t, buf.PutMany([]int{1, 2, 3, 4}, 0, 4))

		sink := &SliceSink[int]{}
		delivered, err := buf.TakeTo(ctx, sink, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, delivered)
		assert.Equal(t, []int{1, 2, 3}, sink.Items)
		assert.Equal(t, 1, buf.OccupiedLength())

		// More than available fails fast in the serialized disciplines;
		// parallel mode would wait for content instead.
		if mode != AccessBoundedParallel {
			_, err = buf.TakeTo(ctx, sink, 5)
			assert.ErrorIs(t, err, cerrors.ErrContentInsufficient)
		}
	})
}

func TestClose(t *testing.T) {
	allModes(t, func(t *testing.T, mode AccessMode) {
		buf, err := New[int](4, WithAccessMode[int](mode))
		require.NoError(t, err)

		require.NoError(t, buf.Close())

		err = buf.PutOne(1)
		require.Error(t, err)
		assert.ErrorIs(t, err, cerrors.ErrBufferClosed)
	})
}

func TestStatisticsTracking(t *testing.T) {
	buf, err := New[int](8)
	require.NoError(t, err)

	require.NoError(t, buf.PutMany([]int{1, 2, 3, 4}, 0, 4))
	_, err = buf.TakeMany(2)
	require.NoError(t, err)
	require.NoError(t, buf.Skip(1))
	buf.Peek()

	err = buf.PutMany([]int{1}, 0, -1) // rejected
	require.Error(t, err)

	s := buf.Stats().Summary()
	assert.Equal(t, int64(1), s.Puts)
	assert.Equal(t, int64(1), s.Takes)
	assert.Equal(t, int64(1), s.Skips)
	assert.Equal(t, int64(1), s.Peeks)
	assert.Equal(t, int64(1), s.Rejections)
	assert.Equal(t, int64(4), s.MaxOccupied)
	assert.Equal(t, int64(1), s.Occupied)
}
