// Package errors provides standardized error handling patterns for ringkit.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// buffer operations: Transient (temporary, retryable), Invalid (bad input or
// misuse, non-retryable), and Fatal (unrecoverable, stop processing).
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Error Taxonomy
//
// Buffer operations surface a small, fixed set of sentinel errors:
//
//   - ErrInvalidArgument: negative counts or offsets, capacity below 2,
//     destination too small. Detected before any state mutation.
//   - ErrCapacityExceeded: a write would exceed capacity and overwrite is
//     disallowed. The buffer is left unchanged.
//   - ErrContentInsufficient: a read or skip exceeds the available content.
//     The buffer is left unchanged.
//   - ErrConcurrencyViolation: an overlapping call was detected by a
//     single-flight guard.
//   - ErrEndOfSource: an external data source ran dry before satisfying a
//     requested count.
//   - ErrBufferClosed: the buffer has been closed.
//
// No error is ever swallowed and none are retried internally; retry, if
// desired, is the caller's responsibility.
//
// # Quick Start
//
// Wrap errors with context for debugging:
//
//	if err := buf.PutMany(data, 0, len(data)); err != nil {
//	    return errors.Wrap(err, "Ingest", "flush", "buffer write")
//	}
//
// Check classification for handling decisions:
//
//	if err := op(); err != nil {
//	    if errors.IsInvalid(err) {
//	        // caller bug, do not retry
//	    } else if errors.IsTransient(err) {
//	        // source ran dry or context expired, may retry
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: <underlying error>"
package errors
