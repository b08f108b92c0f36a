// Package metrics holds the Prometheus instrumentation for the
// authentication flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"clinicore/internal/domain/service"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	loginsStarted    *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	stateConsumes    *prometheus.CounterVec
	loginsCompleted  *prometheus.CounterVec
	cleanupDeleted   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		loginsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_logins_started_total",
			Help: "Total number of initiated external login flows",
		}, []string{"provider"}),
		tokenValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_token_validations_total",
			Help: "Total number of ID token verifications by outcome",
		}, []string{"provider", "result"}),
		stateConsumes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_state_consumes_total",
			Help: "Total number of state token consume attempts by outcome",
		}, []string{"result"}),
		loginsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_logins_completed_total",
			Help: "Total number of finished login callbacks by outcome",
		}, []string{"provider", "outcome"}),
		cleanupDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_state_cleanup_deleted_total",
			Help: "Total number of state rows removed by the cleanup job",
		}, []string{"kind"}),
	}
}

var _ service.AuthMetrics = (*Metrics)(nil)

// LoginStarted increments the count of initiated login flows.
func (m *Metrics) LoginStarted(provider string) {
	m.loginsStarted.WithLabelValues(provider).Inc()
}

// TokenValidation records one ID token verification outcome.
func (m *Metrics) TokenValidation(provider, result string) {
	m.tokenValidations.WithLabelValues(provider, result).Inc()
}

// StateConsumption records one state consume attempt outcome.
func (m *Metrics) StateConsumption(result string) {
	m.stateConsumes.WithLabelValues(result).Inc()
}

// LoginCompleted records a finished callback.
func (m *Metrics) LoginCompleted(provider, outcome string) {
	m.loginsCompleted.WithLabelValues(provider, outcome).Inc()
}

// CleanupDeleted adds to the count of rows removed by the cleanup job.
func (m *Metrics) CleanupDeleted(kind string, n int64) {
	m.cleanupDeleted.WithLabelValues(kind).Add(float64(n))
}
