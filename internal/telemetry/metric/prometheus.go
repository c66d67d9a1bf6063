package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sesskeep"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	OperationsTotal          *prometheus.CounterVec
	RefreshCoalesced         prometheus.Counter
	CorruptedStateRecoveries prometheus.Counter
	GatewayRequestDuration   *prometheus.HistogramVec
}

// NewRegistry creates a registry with all sesskeep metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Session manager operations by outcome.",
		}, []string{"operation", "outcome"}),
		RefreshCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_coalesced_total",
			Help:      "Refresh calls that joined an in-flight refresh instead of starting one.",
		}),
		CorruptedStateRecoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupted_state_recoveries_total",
			Help:      "Times persisted session records failed to decode and were cleared.",
		}),
		GatewayRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Auth API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
	}

	reg.MustRegister(
		r.OperationsTotal,
		r.RefreshCoalesced,
		r.CorruptedStateRecoveries,
		r.GatewayRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registerer exposes the underlying registry so other components (the Badger
// engine, the session collector) can add their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	if r == nil {
		return nil
	}
	return r.registry
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}

// RecordOperation counts one completed manager operation.
func (r *Registry) RecordOperation(operation string, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// IncRefreshCoalesced counts a refresh caller that joined an in-flight refresh.
func (r *Registry) IncRefreshCoalesced() {
	if r == nil {
		return
	}
	r.RefreshCoalesced.Inc()
}

// IncCorruptedStateRecovery counts one corrupted-state recovery.
func (r *Registry) IncCorruptedStateRecovery() {
	if r == nil {
		return
	}
	r.CorruptedStateRecoveries.Inc()
}

// ObserveGatewayRequest records the duration of one auth API request.
func (r *Registry) ObserveGatewayRequest(endpoint, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.GatewayRequestDuration.WithLabelValues(endpoint, outcome).Observe(seconds)
}
