// Package observability exposes the orchestration core's per-package
// Prometheus registries (budget, audit, ...) through a single combined
// /metrics endpoint, so an embedding application does not need to wire
// each subsystem's registry by hand.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server merges one or more subsystem registries behind a single HTTP
// handler.
type Server struct {
	gatherer prometheus.Gatherer
}

// NewServer builds a Server that gathers metrics from every supplied
// registry. A nil entry is ignored, so callers can pass an optional
// subsystem's Metrics.Registry() directly without a nil check.
func NewServer(registries ...*prometheus.Registry) *Server {
	gatherers := make(prometheus.Gatherers, 0, len(registries))
	for _, r := range registries {
		if r != nil {
			gatherers = append(gatherers, r)
		}
	}
	return &Server{gatherer: gatherers}
}

// Handler returns an HTTP handler serving the merged registries in the
// Prometheus text exposition format.
func (s *Server) Handler() http.Handler {
	if s == nil || s.gatherer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}
