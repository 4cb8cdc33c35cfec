package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/config"
	"github.com/patient-tracker/adherence-api/models"
)

// InitialSweepDelay is how long after start-up the catch-up sweep runs
const InitialSweepDelay = 5 * time.Second

// AdherenceJobs returns the reminder and missed-dose jobs. Scheduled
// reminders go through the same gate as request-triggered ones so that a
// period is never emailed twice within the cooldown.
func AdherenceJobs(svc *adherence.Service, gate *adherence.ReminderGate, conf *config.Config) []Job {
	jobs := []Job{
		reminderJob(svc, gate, models.Morning, conf.MorningReminderCron),
		reminderJob(svc, gate, models.Afternoon, conf.AfternoonReminderCron),
		reminderJob(svc, gate, models.Evening, conf.EveningReminderCron),
		{
			Name:    "missed-dose-sweep",
			Spec:    "* * * * *",
			Timeout: 50 * time.Second,
			LockTTL: 50 * time.Second,
			Run: func(ctx context.Context) error {
				_, _, err := svc.ScheduledSweep(ctx)
				return err
			},
		},
		thoroughJob(svc, "thorough-check-morning", "30 12 * * *", models.Morning),
		thoroughJob(svc, "thorough-check-afternoon", "30 18 * * *", models.Morning, models.Afternoon),
		thoroughJob(svc, "thorough-check-evening", "0 22 * * *", models.Morning, models.Afternoon, models.Evening),
	}
	return jobs
}

// InitialSweep closes whatever the previous process left overdue
func InitialSweep(svc *adherence.Service) Job {
	return Job{
		Name:    "initial-sweep",
		LockTTL: time.Minute,
		Run: func(ctx context.Context) error {
			res, err := svc.CatchUpSweep(ctx)
			if err == nil {
				zap.S().Infow("initial sweep complete", "marked", res.Marked)
			}
			return err
		},
	}
}

func reminderJob(svc *adherence.Service, gate *adherence.ReminderGate, period models.Period, spec string) Job {
	return Job{
		Name:    "reminders-" + string(period),
		Spec:    spec,
		Timeout: 2 * time.Minute,
		LockTTL: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			if !gate.Allow(period) {
				zap.S().Infow("reminders already sent for period within cooldown", "period", period)
				return nil
			}
			_, err := svc.SendReminders(ctx, period)
			return err
		},
	}
}

func thoroughJob(svc *adherence.Service, name, spec string, periods ...models.Period) Job {
	return Job{
		Name:    name,
		Spec:    spec,
		LockTTL: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := svc.SweepPeriods(ctx, adherence.TriggerThorough, periods...)
			return err
		},
	}
}
