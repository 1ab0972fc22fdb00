package metrics

import (
	"sort"
	"sync"
)

// Registry holds metrics keyed by name. Metrics are created on first access
// so callers never need to check for nil.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// DefaultRegistry is the process-wide registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// getOrCreate looks name up under the read lock and falls back to creating
// it under the write lock.
func getOrCreate[M any](mu *sync.RWMutex, m map[string]*M, name string, create func(string) *M) *M {
	mu.RLock()
	v, ok := m[name]
	mu.RUnlock()
	if ok {
		return v
	}
	mu.Lock()
	defer mu.Unlock()
	if v, ok = m[name]; ok {
		return v
	}
	v = create(name)
	m[name] = v
	return v
}

// Counter returns the Counter registered under name.
func (r *Registry) Counter(name string) *Counter {
	return getOrCreate(&r.mu, r.counters, name, NewCounter)
}

// Gauge returns the Gauge registered under name.
func (r *Registry) Gauge(name string) *Gauge {
	return getOrCreate(&r.mu, r.gauges, name, NewGauge)
}

// Histogram returns the Histogram registered under name.
func (r *Registry) Histogram(name string) *Histogram {
	return getOrCreate(&r.mu, r.histograms, name, NewHistogram)
}

// Sample is one metric value in a snapshot. Histograms fill Summary and
// leave Value zero.
type Sample struct {
	Name    string
	Kind    string
	Value   int64
	Summary HistogramSummary
}

// Snapshot returns every metric sorted by name.
func (r *Registry) Snapshot() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Sample, 0, len(r.counters)+len(r.gauges)+len(r.histograms))
	for name, c := range r.counters {
		out = append(out, Sample{Name: name, Kind: "counter", Value: c.Value()})
	}
	for name, g := range r.gauges {
		out = append(out, Sample{Name: name, Kind: "gauge", Value: g.Value()})
	}
	for name, h := range r.histograms {
		out = append(out, Sample{Name: name, Kind: "histogram", Summary: h.Summary()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
