// Package metrics provides the in-process counters and timings rpcbridge
// keeps about conversions. Counter and Gauge are lock-free; Histogram uses a
// mutex.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing count.
type Counter struct {
	name  string
	value atomic.Int64
}

// NewCounter returns a new Counter with the given name.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n. Non-positive n is ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.value.Add(n)
	}
}

// Value returns the current count.
func (c *Counter) Value() int64 { return c.value.Load() }

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Gauge is a value that can go up and down, such as the number of
// conversions in flight.
type Gauge struct {
	name  string
	value atomic.Int64
}

// NewGauge returns a new Gauge with the given name.
func NewGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Set sets the gauge.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }

// Histogram summarises observed values by count, sum, min and max.
type Histogram struct {
	name  string
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// NewHistogram returns a new Histogram with the given name.
func NewHistogram(name string) *Histogram {
	return &Histogram{name: name, min: math.MaxFloat64, max: -math.MaxFloat64}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
}

// ObserveSince records the microseconds elapsed since start.
func (h *Histogram) ObserveSince(start time.Time) {
	h.Observe(float64(time.Since(start).Microseconds()))
}

// HistogramSummary is a point-in-time view of a Histogram.
type HistogramSummary struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns the average observation, or 0 when there were none.
func (s HistogramSummary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Summary returns the current summary. Min and Max are 0 when nothing has
// been observed.
func (h *Histogram) Summary() HistogramSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return HistogramSummary{}
	}
	return HistogramSummary{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
}

// Name returns the metric name.
func (h *Histogram) Name() string { return h.name }
