package adherence

import "github.com/prometheus/client_golang/prometheus"

var (
	statusUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adherence_status_updates_total",
			Help: "Dose status changes requested by patients and doctors",
		},
		[]string{"status", "outcome"},
	)

	dosesMissedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adherence_doses_missed_total",
			Help: "Doses moved from Pending to Missed by a sweep",
		},
		[]string{"trigger"},
	)

	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adherence_sweep_runs_total",
			Help: "Missed-dose sweeps that scanned the ledger",
		},
		[]string{"trigger"},
	)

	remindersSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adherence_reminder_emails_total",
			Help: "Reminder emails attempted, by period and result",
		},
		[]string{"period", "result"},
	)
)

func init() {
	prometheus.MustRegister(statusUpdatesTotal, dosesMissedTotal, sweepRunsTotal, remindersSentTotal)
}
