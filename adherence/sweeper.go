package adherence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// Sweep triggers, used as log and metric labels
const (
	TriggerRequest   = "request"
	TriggerScheduled = "scheduled"
	TriggerThorough  = "thorough"
	TriggerManual    = "manual"
)

// SweepPatient closes the patient's Pending doses whose period has already
// ended today. It runs on every authenticated patient request.
func (s *Service) SweepPatient(ctx context.Context, patientID string) (int, error) {
	now := s.now()
	periods := schedule.PeriodsBefore(schedule.PeriodFor(now.Hour()))
	if len(periods) == 0 {
		return 0, nil
	}
	res, err := s.sweep(ctx, models.PendingFilter{
		PatientID:     patientID,
		ScheduledDate: schedule.DayKey(now),
		Periods:       periods,
	}, TriggerRequest)
	return res.Marked, err
}

// ScheduledSweep is the per-minute background check. It only scans the
// ledger at checkpoints and reports whether it did.
func (s *Service) ScheduledSweep(ctx context.Context) (models.SweepResult, bool, error) {
	now := s.now()
	if !schedule.IsSweepCheckpoint(now) {
		return models.SweepResult{}, false, nil
	}
	periods := schedule.SweepPeriods(now.Hour())
	if len(periods) == 0 {
		return models.SweepResult{}, true, nil
	}
	res, err := s.sweep(ctx, models.PendingFilter{
		ScheduledDate: schedule.DayKey(now),
		Periods:       periods,
	}, TriggerScheduled)
	return res, true, err
}

// SweepPeriods closes every patient's Pending doses in the given periods of
// the current schedule day, regardless of checkpoints.
func (s *Service) SweepPeriods(ctx context.Context, trigger string, periods ...models.Period) (models.SweepResult, error) {
	if len(periods) == 0 {
		return models.SweepResult{}, nil
	}
	return s.sweep(ctx, models.PendingFilter{
		ScheduledDate: schedule.DayKey(s.now()),
		Periods:       periods,
	}, trigger)
}

// CatchUpSweep closes every patient's doses in all periods of the current
// schedule day that are already over
func (s *Service) CatchUpSweep(ctx context.Context) (models.SweepResult, error) {
	return s.SweepPeriods(ctx, TriggerManual, schedule.SweepPeriods(s.now().Hour())...)
}

// sweep transitions each matching record with a conditional update, so a
// record already changed by a concurrent writer is neither overwritten nor
// counted. Doses in the closed periods that were never recorded are written
// as Missed. Each patient with changes gets a single notification.
func (s *Service) sweep(ctx context.Context, filter models.PendingFilter, trigger string) (models.SweepResult, error) {
	res := models.SweepResult{ByPatient: map[string]int{}}
	sweepRunsTotal.WithLabelValues(trigger).Inc()

	records, err := s.Ledger.FindPending(ctx, filter)
	if err != nil {
		return res, err
	}

	now := s.now()
	for _, r := range records {
		changed, err := s.Ledger.MarkMissed(ctx, r.ID, now)
		if err != nil {
			zap.S().Errorw("failed to mark dose missed",
				"recordId", r.ID.Hex(),
				"patientId", r.PatientID,
				"error", err)
			continue
		}
		if changed {
			res.Marked++
			res.ByPatient[r.PatientID]++
		}
	}
	s.recordUnattended(ctx, filter, now, &res)
	dosesMissedTotal.WithLabelValues(trigger).Add(float64(res.Marked))

	for patientID, count := range res.ByPatient {
		s.notify(patientID, count)
	}
	if res.Marked > 0 {
		zap.S().Infow("marked doses as missed",
			"trigger", trigger,
			"date", filter.ScheduledDate,
			"periods", filter.Periods,
			"count", res.Marked,
			"patients", len(res.ByPatient))
	}
	return res, nil
}

func (s *Service) recordUnattended(ctx context.Context, filter models.PendingFilter, now time.Time, res *models.SweepResult) {
	day, err := schedule.ParseDate(filter.ScheduledDate)
	if err != nil {
		zap.S().Errorw("invalid sweep date", "date", filter.ScheduledDate, "error", err)
		return
	}
	patientIDs := []string{filter.PatientID}
	if filter.PatientID == "" {
		patientIDs, err = s.Prescriptions.PatientIDs(ctx)
		if err != nil {
			zap.S().Errorw("failed to list patients for sweep", "error", err)
			return
		}
	}
	for _, patientID := range patientIDs {
		n, err := s.recordUnattendedFor(ctx, patientID, day, filter, now)
		if err != nil {
			zap.S().Errorw("failed to record unattended doses",
				"patientId", patientID,
				"error", err)
		}
		if n > 0 {
			res.Marked += n
			res.ByPatient[patientID] += n
		}
	}
}

// recordUnattendedFor writes a Missed record for every expected dose of the
// patient in the closed periods that has no record yet. Doses whose period
// closed before the prescription was written are skipped.
func (s *Service) recordUnattendedFor(ctx context.Context, patientID string, day time.Time, filter models.PendingFilter, now time.Time) (int, error) {
	prescriptions, err := s.Prescriptions.FindByPatient(ctx, patientID)
	if err != nil || len(prescriptions) == 0 {
		return 0, err
	}
	starts := make(map[string]time.Time, len(prescriptions))
	for _, p := range prescriptions {
		start := p.Date
		if start.IsZero() {
			start = p.CreatedAt
		}
		starts[p.ID.Hex()] = start
	}
	closing := make(map[models.Period]bool, len(filter.Periods))
	for _, p := range filter.Periods {
		closing[p] = true
	}

	records, err := s.Ledger.FindByPatientDate(ctx, patientID, filter.ScheduledDate)
	if err != nil {
		return 0, err
	}
	recorded := make(map[string]bool, len(records))
	for _, r := range records {
		recorded[r.MedicineID+"/"+string(r.ScheduledTime)] = true
	}

	created := 0
	for _, d := range schedule.Expand(prescriptions, day) {
		if !closing[d.Period] || recorded[d.MedicineID+"/"+string(d.Period)] {
			continue
		}
		if !starts[d.PrescriptionID].Before(schedule.PeriodEnd(day, d.Period)) {
			continue
		}
		ok, err := s.Ledger.InsertMissed(ctx, models.AdherenceRecord{
			PatientID:      patientID,
			MedicineID:     d.MedicineID,
			PrescriptionID: d.PrescriptionID,
			Medication:     d.MedicineName,
			ScheduledDate:  filter.ScheduledDate,
			ScheduledTime:  d.Period,
		}, now)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *Service) notify(patientID string, count int) {
	if s.Notifier == nil || count == 0 {
		return
	}
	s.Notifier.NotifyPatient(patientID, models.Notification{
		Event:     models.MedicationsUpdatedEvent,
		PatientID: patientID,
		Count:     count,
		Message:   fmt.Sprintf("%d medication(s) marked as missed", count),
		Timestamp: s.now(),
	})
}
