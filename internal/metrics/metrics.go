package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for plan submissions. Each instance owns its
// registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Upsert outcomes by plan type and outcome (created, updated, rejected, failed)
	UpsertOutcome *prometheus.CounterVec

	// Rejected submissions by plan type and rule kind
	ValidationFailures *prometheus.CounterVec

	UpsertLatency *prometheus.HistogramVec

	// HTTP requests by method and status
	HTTPRequests *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		UpsertOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pgd_plan_upserts_total",
			Help: "Plan submissions by plan type and outcome",
		}, []string{"plan", "outcome"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pgd_plan_validation_failures_total",
			Help: "Rejected plan submissions by plan type and rule kind",
		}, []string{"plan", "kind"}),
		UpsertLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pgd_plan_upsert_duration_seconds",
			Help:    "Duration of plan validation and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"plan"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pgd_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
	}
}

// IncrementOutcome records the outcome of a plan upsert.
func (m *Metrics) IncrementOutcome(plan, outcome string) {
	if m != nil {
		m.UpsertOutcome.WithLabelValues(plan, outcome).Inc()
	}
}

// IncrementValidationFailure records a rejected submission.
func (m *Metrics) IncrementValidationFailure(plan, kind string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(plan, kind).Inc()
	}
}

// ObserveUpsertLatency records the total upsert duration.
func (m *Metrics) ObserveUpsertLatency(plan string, d time.Duration) {
	if m != nil {
		m.UpsertLatency.WithLabelValues(plan).Observe(d.Seconds())
	}
}

// IncrementHTTPRequest records a served request.
func (m *Metrics) IncrementHTTPRequest(method, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, status).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
