package ring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/ringkit/metric"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	puts       prometheus.Counter
	takes      prometheus.Counter
	skips      prometheus.Counter
	evictions  prometheus.Counter
	rejections prometheus.Counter

	occupancy   prometheus.Gauge
	utilization prometheus.Gauge
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
func newBufferMetrics(registry *metric.Registry, name string) (*bufferMetrics, error) {
	newCounter := func(metricName, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringkit",
			Subsystem:   "buffer",
			Name:        metricName,
			ConstLabels: prometheus.Labels{"buffer": name},
			Help:        help,
		})
	}
	newGauge := func(metricName, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ringkit",
			Subsystem:   "buffer",
			Name:        metricName,
			ConstLabels: prometheus.Labels{"buffer": name},
			Help:        help,
		})
	}

	m := &bufferMetrics{
		puts:        newCounter("puts_total", "Total number of completed put operations"),
		takes:       newCounter("takes_total", "Total number of completed take operations"),
		skips:       newCounter("skips_total", "Total number of completed skip operations"),
		evictions:   newCounter("evictions_total", "Total number of elements evicted by overwrite"),
		rejections:  newCounter("rejections_total", "Total number of refused operations"),
		occupancy:   newGauge("occupancy", "Current number of elements in the buffer"),
		utilization: newGauge("utilization", "Occupied length over capacity (0.0 to 1.0)"),
	}

	registrations := []struct {
		metricName string
		collector  prometheus.Counter
	}{
		{"puts", m.puts},
		{"takes", m.takes},
		{"skips", m.skips},
		{"evictions", m.evictions},
		{"rejections", m.rejections},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(name, reg.metricName, reg.collector); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(name, "occupancy", m.occupancy); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordPut(occupied, capacity int) {
	m.puts.Inc()
	m.updateOccupancy(occupied, capacity)
}

func (m *bufferMetrics) recordTake(occupied, capacity int) {
	m.takes.Inc()
	m.updateOccupancy(occupied, capacity)
}

func (m *bufferMetrics) recordSkip(occupied, capacity int) {
	m.skips.Inc()
	m.updateOccupancy(occupied, capacity)
}

func (m *bufferMetrics) recordEvictions(n int) {
	m.evictions.Add(float64(n))
}

func (m *bufferMetrics) recordRejection() {
	m.rejections.Inc()
}

func (m *bufferMetrics) updateOccupancy(occupied, capacity int) {
	m.occupancy.Set(float64(occupied))
	m.utilization.Set(float64(occupied) / float64(capacity))
}
