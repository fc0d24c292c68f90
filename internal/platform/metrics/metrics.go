package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the application. Label values
// are fixed vocabularies; identifiers never become label values.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	IdentitiesCreated    prometheus.Counter
	Logins               *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recoveryregister_registrations_created_total",
			Help: "Total number of event registrations accepted",
		}),
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recoveryregister_identities_created_total",
			Help: "Total number of identities created",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoveryregister_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recoveryregister_active_sessions",
			Help: "Sessions currently live in the session store",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recoveryregister_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
	}
}

// Login outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
