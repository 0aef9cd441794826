package budget

import "github.com/prometheus/client_golang/prometheus"

// Metrics records token-budget decisions against a private prometheus
// registry, following the per-subsystem metrics struct the rest of this
// codebase uses. A TokenBudgeter with no Metrics attached records
// nothing: its recordAttempt checks b.metrics == nil before calling
// observe.
type Metrics struct {
	registry      *prometheus.Registry
	consumeTotal  *prometheus.CounterVec
	utilization   *prometheus.GaugeVec
}

// NewMetrics builds a Metrics bound to a fresh private registry. Callers
// that want these metrics exposed on an HTTP endpoint pass the returned
// Registry to their own handler.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		consumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "budget",
			Name:      "consume_total",
			Help:      "Token consumption attempts by agent and outcome.",
		}, []string{"agent", "accepted"}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Subsystem: "budget",
			Name:      "utilization_ratio",
			Help:      "Fraction of the total token budget consumed, updated per agent.",
		}, []string{"agent"}),
	}

	registry.MustRegister(m.consumeTotal, m.utilization)
	return m
}

// Registry exposes the private registry so a caller can wire it into an
// HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(agentName string, accepted bool, utilization float64) {
	label := "false"
	if accepted {
		label = "true"
	}
	m.consumeTotal.WithLabelValues(agentName, label).Inc()
	m.utilization.WithLabelValues(agentName).Set(utilization)
}
