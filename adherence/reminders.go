package adherence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// DefaultReminderCooldown is how long the gate stays shut after firing a period
const DefaultReminderCooldown = 4 * time.Minute

// dispatchTimeout bounds a reminder run started by the gate
const dispatchTimeout = 2 * time.Minute

// SendReminders emails every patient with prescriptions the doses due in
// period that are not yet Taken, then flags those doses as reminded. A
// failure for one patient is logged and does not stop the others.
func (s *Service) SendReminders(ctx context.Context, period models.Period) (models.ReminderResult, error) {
	res := models.ReminderResult{Period: period}
	now := s.now()

	patientIDs, err := s.Prescriptions.PatientIDs(ctx)
	if err != nil {
		return res, err
	}

	for _, patientID := range patientIDs {
		res.PatientsChecked++
		sent, seeded, err := s.remindPatient(ctx, patientID, period, now)
		if sent {
			res.EmailsSent++
		}
		res.RecordsSeeded += seeded
		if err != nil {
			res.Failures++
			zap.S().Errorw("failed to send medication reminder",
				"patientId", patientID,
				"period", period,
				"error", err)
		}
	}

	zap.S().Infow("medication reminders dispatched",
		"period", period,
		"patients", res.PatientsChecked,
		"emails", res.EmailsSent,
		"seeded", res.RecordsSeeded,
		"failures", res.Failures)
	return res, nil
}

func (s *Service) remindPatient(ctx context.Context, patientID string, period models.Period, now time.Time) (bool, int, error) {
	patient, err := s.patient(ctx, patientID)
	if err != nil {
		return false, 0, err
	}
	prescriptions, err := s.Prescriptions.FindByPatient(ctx, patientID)
	if err != nil {
		return false, 0, err
	}

	day := schedule.Day(now)
	date := schedule.DateKey(day)
	due := schedule.DueIn(schedule.Expand(prescriptions, day), period)
	if len(due) == 0 {
		return false, 0, nil
	}

	records, err := s.Ledger.FindByPatientDate(ctx, patientID, date)
	if err != nil {
		return false, 0, err
	}
	taken := map[string]bool{}
	for _, r := range records {
		if r.ScheduledTime == period && r.Status == models.StatusTaken {
			taken[r.MedicineID] = true
		}
	}
	var pending []models.ExpectedDose
	for _, d := range due {
		if !taken[d.MedicineID] {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return false, 0, nil
	}

	if err := s.Mailer.SendReminderEmail(ctx, patient.Email, patient.Name, pending, period); err != nil {
		remindersSentTotal.WithLabelValues(string(period), "error").Inc()
		return false, 0, fmt.Errorf("send reminder email: %w", err)
	}
	remindersSentTotal.WithLabelValues(string(period), "sent").Inc()

	seeded := 0
	for _, d := range pending {
		err := s.Ledger.SeedReminder(ctx, models.AdherenceRecord{
			PatientID:      patientID,
			MedicineID:     d.MedicineID,
			PrescriptionID: d.PrescriptionID,
			Medication:     d.MedicineName,
			ScheduledDate:  date,
			ScheduledTime:  period,
		}, now)
		if err != nil {
			zap.S().Errorw("failed to record reminder",
				"patientId", patientID,
				"medicineId", d.MedicineID,
				"error", err)
			continue
		}
		seeded++
	}
	return true, seeded, nil
}

// ReminderGate fires a reminder dispatch for a period at most once per
// cooldown. It is safe for concurrent use.
type ReminderGate struct {
	mu       sync.Mutex
	last     map[models.Period]time.Time
	cooldown time.Duration
	dispatch func(ctx context.Context, period models.Period)
	wg       sync.WaitGroup

	Now func() time.Time
}

// NewReminderGate returns a gate that runs dispatch in the background
func NewReminderGate(cooldown time.Duration, dispatch func(ctx context.Context, period models.Period)) *ReminderGate {
	return &ReminderGate{
		last:     make(map[models.Period]time.Time),
		cooldown: cooldown,
		dispatch: dispatch,
		Now:      time.Now,
	}
}

// Allow reports whether period may fire now and, if so, starts its cooldown
func (g *ReminderGate) Allow(period models.Period) bool {
	now := g.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.last[period]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.last[period] = now
	return true
}

// Trigger starts a dispatch for period unless it fired within the cooldown.
// It never blocks on the dispatch itself.
func (g *ReminderGate) Trigger(period models.Period) bool {
	if !g.Allow(period) {
		return false
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		g.dispatch(ctx, period)
	}()
	return true
}

// Wait blocks until every dispatch started by Trigger has returned
func (g *ReminderGate) Wait() {
	g.wg.Wait()
}

// GateDispatch adapts SendReminders to the ReminderGate dispatch signature
func (s *Service) GateDispatch(ctx context.Context, period models.Period) {
	if _, err := s.SendReminders(ctx, period); err != nil {
		zap.S().Errorw("reminder dispatch failed", "period", period, "error", err)
	}
}
