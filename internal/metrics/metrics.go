package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the consent service
type Metrics struct {
	AcceptAll          prometheus.Counter
	RejectNonEssential prometheus.Counter
	PreferencesUpdated prometheus.Counter
	ConsentRevoked     prometheus.Counter
	LogFailures        prometheus.Counter
	ScriptsBlocked     prometheus.Counter
}

// New creates all consent metrics and registers them on the given registry
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		AcceptAll: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_accept_total",
			Help: "Total number of accept-all consent decisions",
		}),
		RejectNonEssential: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_reject_total",
			Help: "Total number of reject-non-essential consent decisions",
		}),
		PreferencesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_update_total",
			Help: "Total number of custom preference saves",
		}),
		ConsentRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_revoke_total",
			Help: "Total number of consent revocations",
		}),
		LogFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_log_failures_total",
			Help: "Total number of consent audit log writes that failed",
		}),
		ScriptsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "masilia_consent_scripts_blocked_total",
			Help: "Total number of script requests blocked for lack of consent",
		}),
	}
}
