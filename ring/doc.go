// Package ring provides fixed-capacity circular buffers usable as bounded
// FIFO queues between producers and consumers, with three concurrency
// disciplines layered on one storage model.
//
// # Overview
//
// A Buffer owns a fixed backing array plus head/tail offsets and the occupied
// length. All wrap-around copies are expressed as at most two contiguous
// chunk copies. The access mode decides how operations are admitted,
// serialized and made visible:
//
//   - AccessSequential: caller-serialized pass-through. A re-entrancy guard
//     fails fast with ErrConcurrencyViolation on accidental overlapping calls.
//   - AccessExclusive: one put and one take may be mid-copy concurrently. An
//     allocate/execute/publish protocol reserves the region under a short
//     lock, runs the copy lock-free, then commits.
//   - AccessBoundedParallel: up to MaxConcurrentOps operations run at once.
//     Each gets a per-kind sequence number at allocation and publishes only
//     after every earlier operation of its kind has published, so externally
//     visible order always matches allocation order even when copies finish
//     out of order.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := ring.New[byte](4096)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = buf.PutMany(data, 0, len(data))
//	out, err := buf.TakeMany(128)
//
// Bounded-parallel buffer with metrics:
//
//	buf, err := ring.New[byte](1<<20,
//		ring.WithAccessMode[byte](ring.AccessBoundedParallel),
//		ring.WithMaxConcurrentOps[byte](8),
//		ring.WithMetrics[byte](registry, "ingest"),
//	)
//
// Filling from an external source (the only step that may block on I/O):
//
//	n, err := buf.PutFrom(ctx, ring.ReaderSource{R: conn}, 4096)
//
// # Ordering Guarantees
//
// Within one kind, publish order equals allocation order. Between kinds no
// ordering is promised beyond each kind's internal consistency: a put and a
// take may be concurrently allocated against overlapping future state, which
// is why space and content checks run against the shadow (dirty) length, not
// the published one.
//
// # Error Taxonomy
//
// Operations fail with the sentinels in the errors package: ErrInvalidArgument
// (checked before any state mutation), ErrCapacityExceeded, ErrContentInsufficient,
// ErrConcurrencyViolation, ErrEndOfSource and ErrBufferClosed. The buffer is
// left unchanged by rejected operations; a short source read commits the
// elements already obtained and reports the shortfall.
package ring
