package audit

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the optional Prometheus instrumentation for a Logger.
// Its recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry    *prometheus.Registry
	eventsTotal *prometheus.CounterVec
	flushErrors prometheus.Counter
}

// NewMetrics builds a private registry with the audit event counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "audit",
			Name:      "events_total",
			Help:      "Total audit events written, by event type.",
		}, []string{"event_type"}),
		flushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "audit",
			Name:      "flush_errors_total",
			Help:      "Total errors encountered flushing the audit log.",
		}),
	}
	reg.MustRegister(m.eventsTotal, m.flushErrors)
	return m
}

// Registry exposes the private registry for embedding into a larger
// metrics server.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) recordEvent(eventType EventType) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(eventType)).Inc()
}

func (m *Metrics) recordFlushError() {
	if m == nil {
		return
	}
	m.flushErrors.Inc()
}
