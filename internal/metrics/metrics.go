// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks workflow activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	StatusTransitions   *prometheus.CounterVec
	OverdueFlagged      prometheus.Counter
	CertificatesExpired prometheus.Counter
	LicensesExpired     prometheus.Counter
	RemindersSent       prometheus.Counter
	NoInspectors        prometheus.Counter
	DispatchFailures    *prometheus.CounterVec
	SweepDuration       *prometheus.HistogramVec
}

// New registers all workflow metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firenoc_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"status"}),
		OverdueFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "firenoc_applications_overdue_flagged_total",
			Help: "Applications flagged overdue by the overdue sweep",
		}),
		CertificatesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "firenoc_noc_expired_total",
			Help: "NOC certificates moved to expired",
		}),
		LicensesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "firenoc_licenses_expired_total",
			Help: "Licenses moved to expired",
		}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "firenoc_license_renewal_reminders_total",
			Help: "License renewal reminders delivered",
		}),
		NoInspectors: factory.NewCounter(prometheus.CounterOpts{
			Name: "firenoc_auto_assign_no_inspectors_total",
			Help: "Auto-assignments skipped because no active inspector exists",
		}),
		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firenoc_notification_failures_total",
			Help: "Failed notification deliveries by channel",
		}, []string{"channel"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "firenoc_sweep_duration_seconds",
			Help:    "Duration of scheduled sweeps",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"sweep"}),
	}
}

func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) AddOverdue(n int) {
	if m == nil {
		return
	}
	m.OverdueFlagged.Add(float64(n))
}

func (m *Metrics) AddCertificatesExpired(n int64) {
	if m == nil {
		return
	}
	m.CertificatesExpired.Add(float64(n))
}

func (m *Metrics) AddLicensesExpired(n int64) {
	if m == nil {
		return
	}
	m.LicensesExpired.Add(float64(n))
}

func (m *Metrics) IncReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

func (m *Metrics) IncNoInspectors() {
	if m == nil {
		return
	}
	m.NoInspectors.Inc()
}

func (m *Metrics) IncDispatchFailure(channel string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(channel).Inc()
}

// ObserveSweep records how long a sweep took. Call with time.Now() taken at
// the start of the sweep.
func (m *Metrics) ObserveSweep(sweep string, start time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.WithLabelValues(sweep).Observe(time.Since(start).Seconds())
}
