package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"assetmarket/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured market events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assetmarket",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of market events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

type countingEmitter struct {
	next events.Emitter
}

// NewEmitter decorates next so every emitted event is also counted in the
// prometheus registry. A nil next becomes a no-op sink.
func NewEmitter(next events.Emitter) events.Emitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return countingEmitter{next: next}
}

// Emit implements the events.Emitter interface.
func (c countingEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	Events().RecordEvent(evt.EventType())
	c.next.Emit(evt)
}
