// Package telemetry collects lightweight in-process metrics: a bounded ring
// of timestamped samples plus monotone counters and gauges.
package telemetry

import (
	"sync"
	"time"
)

// DefaultMaxMetrics bounds the retained metric samples.
const DefaultMaxMetrics = 10000

// dashboardRecent is how many samples a Dashboard snapshot includes.
const dashboardRecent = 100

// Metric is one recorded sample.
type Metric struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Dashboard is a point-in-time snapshot for the monitoring surface.
type Dashboard struct {
	Counters      map[string]int64   `json:"counters"`
	Gauges        map[string]float64 `json:"gauges"`
	RecentMetrics []Metric           `json:"recent_metrics"`
}

// Collector aggregates metrics, counters and gauges. Thread-safe.
type Collector struct {
	mu         sync.Mutex
	maxMetrics int
	metrics    []Metric
	counters   map[string]int64
	gauges     map[string]float64
}

// NewCollector creates a collector.
// Non-positive maxMetrics falls back to the default cap.
func NewCollector(maxMetrics int) *Collector {
	if maxMetrics <= 0 {
		maxMetrics = DefaultMaxMetrics
	}
	return &Collector{
		maxMetrics: maxMetrics,
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
	}
}

// RecordMetric appends a sample, evicting the oldest past the cap.
func (c *Collector) RecordMetric(name string, value float64, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, Metric{
		Name:      name,
		Value:     value,
		Timestamp: time.Now(),
		Tags:      tags,
	})
	if len(c.metrics) > c.maxMetrics {
		c.metrics = c.metrics[len(c.metrics)-c.maxMetrics:]
	}
}

// IncrCounter adds delta to a named counter.
func (c *Collector) IncrCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

// Counter returns the current value of a counter (0 if never incremented).
func (c *Collector) Counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// SetGauge sets a named gauge.
func (c *Collector) SetGauge(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

// Snapshot returns copies of all counters and gauges.
func (c *Collector) Snapshot() (counters map[string]int64, gauges map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyCounters(c.counters), copyGauges(c.gauges)
}

// Dashboard returns the monitoring snapshot: all counters and gauges plus the
// most recent samples (up to 100).
func (c *Collector) Dashboard() Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := 0
	if len(c.metrics) > dashboardRecent {
		start = len(c.metrics) - dashboardRecent
	}
	recent := make([]Metric, len(c.metrics)-start)
	copy(recent, c.metrics[start:])

	return Dashboard{
		Counters:      copyCounters(c.counters),
		Gauges:        copyGauges(c.gauges),
		RecentMetrics: recent,
	}
}

func copyCounters(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyGauges(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
