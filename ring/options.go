package ring

import (
	"log/slog"

	"github.com/c360/ringkit/metric"
)

// Option configures buffer behavior using the functional options pattern.
type Option[T any] func(*bufferOptions[T])

// bufferOptions holds internal configuration for buffer instances.
// Statistics are ALWAYS collected; Prometheus metrics are optional.
type bufferOptions[T any] struct {
	mode             AccessMode
	allowOverwrite   bool
	maxConcurrentOps int
	initialData      []T

	// metricsReg is optional - if provided, buffer stats are also exposed
	// as Prometheus metrics under metricsName.
	metricsReg  *metric.Registry
	metricsName string

	logger *slog.Logger
}

// WithAccessMode selects the concurrency discipline for the buffer.
// Defaults to AccessExclusive, which is safe for one concurrent producer
// and one concurrent consumer.
func WithAccessMode[T any](mode AccessMode) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.mode = mode
	}
}

// WithOverwrite makes writes that would exceed capacity evict the oldest
// elements instead of failing. Only valid with AccessSequential; the
// concurrent disciplines cannot evict under a live take.
func WithOverwrite[T any]() Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.allowOverwrite = true
	}
}

// WithMaxConcurrentOps caps the number of operations admitted at once under
// AccessBoundedParallel. Ignored by the other modes. Defaults to GOMAXPROCS.
func WithMaxConcurrentOps[T any](n int) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.maxConcurrentOps = n
	}
}

// WithInitialData pre-populates the buffer. The data must fit within
// capacity or construction fails.
func WithInitialData[T any](items []T) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.initialData = items
	}
}

// WithMetrics enables Prometheus metrics export for buffer statistics.
// If registry is nil or name is empty, this option is ignored.
func WithMetrics[T any](registry *metric.Registry, name string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && name != "" {
			opts.metricsReg = registry
			opts.metricsName = name
		}
	}
}

// WithLogger sets the structured logger for lifecycle events.
// Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.logger = logger
	}
}

// applyOptions applies functional options to create final buffer configuration.
func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		mode: AccessExclusive,
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
