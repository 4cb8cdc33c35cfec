package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// ReminderTrigger offers the current period to the reminder gate on every
// request. The dispatch runs in the background and never delays the response.
func ReminderTrigger(gate *adherence.ReminderGate, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := now()
			if schedule.RemindersOpen(t) {
				period := schedule.PeriodFor(t.Hour())
				if gate.Trigger(period) {
					zap.S().Debugw("reminder dispatch triggered by request",
						"period", period,
						"path", r.URL.Path)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MissedDoseCheck closes the calling patient's overdue doses before the
// handler runs. It must sit behind the auth middleware.
func MissedDoseCheck(svc *adherence.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := PrincipalFrom(r.Context()); ok && p.Role == models.RolePatient {
				ctx, cancel := WithQueryTimeout(r.Context())
				if _, err := svc.SweepPatient(ctx, p.ID); err != nil {
					zap.S().Errorw("missed dose check failed",
						"patientId", p.ID,
						"error", err)
				}
				cancel()
			}
			next.ServeHTTP(w, r)
		})
	}
}
