package metrics

import (
	"fmt"
	"time"
)

// Names of the conversion totals.
const (
	ConversionsOK       = "convert.ok"
	ConversionsFailed   = "convert.failed"
	ConversionLatency   = "convert.latency_us"
	ConversionsInFlight = "convert.inflight"
)

// ObserveConversion records the outcome of one conversion in r, both in the
// totals and under a per-entity, per-direction name such as
// "convert.receipt.to-geth.failed.overflow". reason is the failure kind, or
// empty on success.
func ObserveConversion(r *Registry, entity, direction string, start time.Time, reason string) {
	prefix := fmt.Sprintf("convert.%s.%s", entity, direction)
	r.Histogram(ConversionLatency).ObserveSince(start)
	if reason != "" {
		r.Counter(ConversionsFailed).Inc()
		r.Counter(prefix + ".failed." + reason).Inc()
		return
	}
	r.Counter(ConversionsOK).Inc()
	r.Counter(prefix + ".ok").Inc()
}

// StartConversion marks a conversion as in flight and returns the function
// that records its outcome.
func StartConversion(r *Registry, entity, direction string) (done func(reason string)) {
	start := time.Now()
	inflight := r.Gauge(ConversionsInFlight)
	inflight.Inc()
	return func(reason string) {
		inflight.Dec()
		ObserveConversion(r, entity, direction, start, reason)
	}
}
