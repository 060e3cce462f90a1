// Package metrics exposes prometheus collectors for enrollment activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enroll"

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	enrollments        *prometheus.CounterVec
	validationFailures prometheus.Counter
	backendFailures    *prometheus.CounterVec
	rosterSize         *prometheus.GaugeVec
}

// New creates and registers the enrollment collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollments_total",
			Help:      "Patients enrolled, by trial and assigned arm.",
		}, []string{"trial", "arm"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Enrollment submissions rejected before assignment.",
		}),
		backendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Roster backend load and save failures.",
		}, []string{"backend", "op"}),
		rosterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_size",
			Help:      "Patients currently in the in-memory roster.",
		}, []string{"trial"}),
	}

	m.registry.MustRegister(
		m.enrollments,
		m.validationFailures,
		m.backendFailures,
		m.rosterSize,
		collectors.NewGoCollector(),
	)
	return m
}

// Enrolled counts one successful enrollment.
func (m *Metrics) Enrolled(trial, arm string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(trial, arm).Inc()
}

// ValidationFailed counts one rejected submission.
func (m *Metrics) ValidationFailed() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// BackendFailed counts one failed backend operation ("load" or "save").
func (m *Metrics) BackendFailed(backend, op string) {
	if m == nil {
		return
	}
	m.backendFailures.WithLabelValues(backend, op).Inc()
}

// SetRosterSize records the current roster length of a trial.
func (m *Metrics) SetRosterSize(trial string, n int) {
	if m == nil {
		return
	}
	m.rosterSize.WithLabelValues(trial).Set(float64(n))
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
