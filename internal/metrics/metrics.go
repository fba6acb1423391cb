package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "identity_service"

var (
	otpIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of one-time passcodes issued",
		},
		[]string{"purpose"}, // verify_email, password_reset
	)

	otpChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_checks_total",
			Help:      "Total number of submitted passcodes checked",
		},
		[]string{"result"}, // ok, expired, mismatch
	)

	authzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"result"}, // allow, account_inactive, insufficient_role, ...
	)

	auditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Total number of audited business events",
		},
		[]string{"action"},
	)

	mailDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_dispatch_total",
			Help:      "Total number of email dispatch attempts",
		},
		[]string{"driver", "status"},
	)

	dependencyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_health",
			Help:      "Health status of dependencies (1 = healthy, 0 = unhealthy)",
		},
		[]string{"dependency"},
	)
)

// RecordAudit counts an audit event. OTP issue/check events also feed their
// dedicated counters.
func RecordAudit(action string, fields map[string]string) {
	auditEventsTotal.WithLabelValues(action).Inc()
	switch action {
	case "otp.issued":
		otpIssuedTotal.WithLabelValues(fields["purpose"]).Inc()
	case "otp.checked":
		otpChecksTotal.WithLabelValues(fields["result"]).Inc()
	}
}

// RecordAuthz counts a Guard decision.
func RecordAuthz(result string) {
	authzDecisionsTotal.WithLabelValues(result).Inc()
}

// RecordMailDispatch counts one send attempt by mailer driver.
func RecordMailDispatch(driver string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	mailDispatchTotal.WithLabelValues(driver, status).Inc()
}

// SetDependencyHealth sets the health status of a dependency
func SetDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	dependencyHealth.WithLabelValues(dependency).Set(value)
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
