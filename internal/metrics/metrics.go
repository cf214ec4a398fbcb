package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditeng_audits_total",
			Help: "Audit lifecycle counter by action and tier",
		},
		[]string{"action", "tier"}, // created|rescheduled|completed|overdue|deleted
	)

	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditeng_job_runs_total",
			Help: "Periodic job executions by job name and result",
		},
		[]string{"job", "result"}, // ok|error|skipped
	)

	ReminderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditeng_reminder_requests_total",
			Help: "Reminder notification requests by outcome",
		},
		[]string{"result"}, // requested|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		AuditsTotal,
		JobRunsTotal,
		ReminderRequestsTotal,
	)
}
