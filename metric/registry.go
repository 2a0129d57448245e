// Package metric manages Prometheus metric registration for ringkit buffers.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/ringkit/errors"
)

// Registrar defines the interface for registering buffer-specific metrics
type Registrar interface {
	RegisterCounter(bufferName, metricName string, counter prometheus.Counter) error
	RegisterGauge(bufferName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(bufferName, metricName string, histogram prometheus.Histogram) error
	Unregister(bufferName, metricName string) bool
}

// Registry manages the registration and lifecycle of metrics.
// All buffers sharing one Registry expose their metrics through a single
// Prometheus registry, each distinguished by its buffer name label.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a new metrics registry with Go runtime metrics attached
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// RegisterCounter registers a counter metric for a buffer
func (r *Registry) RegisterCounter(bufferName, metricName string, counter prometheus.Counter) error {
	return r.register(bufferName, metricName, "RegisterCounter", counter)
}

// RegisterGauge registers a gauge metric for a buffer
func (r *Registry) RegisterGauge(bufferName, metricName string, gauge prometheus.Gauge) error {
	return r.register(bufferName, metricName, "RegisterGauge", gauge)
}

// RegisterHistogram registers a histogram metric for a buffer
func (r *Registry) RegisterHistogram(bufferName, metricName string, histogram prometheus.Histogram) error {
	return r.register(bufferName, metricName, "RegisterHistogram", histogram)
}

// register adds a collector under "bufferName.metricName", rejecting duplicates
// both at the registry level and the Prometheus level.
func (r *Registry) register(bufferName, metricName, operation string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", bufferName, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for buffer %s", metricName, bufferName),
			"Registry", operation, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "Registry", operation,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "Registry", operation,
			"failed to register collector with prometheus")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// Unregister removes a metric from the registry
func (r *Registry) Unregister(bufferName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", bufferName, metricName)

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registeredMetrics, key)
	}

	return success
}
