package ring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	cerrors "github.com/c360/ringkit/errors"
)

// gatedSource signals entered on its first read, then blocks until release
// is closed. Lets tests hold an operation in its execute phase.
type gatedSource struct {
	data    []int
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource(data []int) *gatedSource {
	return &gatedSource{
		data:    data,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedSource) ReadItems(ctx context.Context, dst []int) (int, error) {
	g.once.Do(func() { close(g.entered) })

	select {
	case <-g.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	if len(g.data) == 0 {
		return 0, cerrors.ErrEndOfSource
	}
	n := copy(dst, g.data)
	g.data = g.data[n:]
	return n, nil
}

// countingSource tracks how many reads are in flight at once, for asserting
// the admission bound.
type countingSource struct {
	inFlight *int32
	maxSeen  *int32
	delay    time.Duration
	value    int
}

func (c *countingSource) ReadItems(_ context.Context, dst []int) (int, error) {
	cur := atomic.AddInt32(c.inFlight, 1)
	defer atomic.AddInt32(c.inFlight, -1)

	for {
		m := atomic.LoadInt32(c.maxSeen)
		if cur <= m || atomic.CompareAndSwapInt32(c.maxSeen, m, cur) {
			break
		}
	}

	time.Sleep(c.delay)

	for i := range dst {
		dst[i] = c.value
	}
	return len(dst), nil
}

// failingSink accepts a fixed number of elements, then errors.
type failingSink struct {
	Items             []int
	acceptBeforeError int
}

func (f *failingSink) WriteItems(_ context.Context, src []int) (int, error) {
	remaining := f.acceptBeforeError - len(f.Items)
	if remaining <= 0 {
		return 0, errSinkFailed
	}
	if remaining > len(src) {
		remaining = len(src)
	}
	f.Items = append(f.Items, src[:remaining]...)
	if remaining < len(src) {
		return remaining, errSinkFailed
	}
	return remaining, nil
}

var errSinkFailed = cerrors.WrapTransient(cerrors.ErrEndOfSource, "failingSink", "WriteItems", "test sink")

// blockedSource never produces until its context is cancelled.
type blockedSource struct{}

func (blockedSource) ReadItems(ctx context.Context, _ []int) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
