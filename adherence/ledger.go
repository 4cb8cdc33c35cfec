package adherence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// maxWriteAttempts bounds the update/insert loop when concurrent writers race
// on the same dose key
const maxWriteAttempts = 3

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// StatusChange is a validated request to set the status of one dose
type StatusChange struct {
	PatientID       string
	MedicineID      string
	PrescriptionID  string
	Medication      string
	Period          models.Period
	Date            string
	Status          models.AdherenceStatus
	IsNewMedication bool
}

// ParseStatusChange validates an update-status request body
func ParseStatusChange(req models.StatusUpdateRequest) (StatusChange, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return StatusChange{}, validationError("patientId is required")
	}
	period, ok := models.ParsePeriod(req.ScheduledTime)
	if !ok {
		return StatusChange{}, validationError("scheduledTime must be morning, afternoon or evening")
	}
	status, ok := models.ParseAdherenceStatus(req.Status)
	if !ok {
		return StatusChange{}, validationError("status must be Pending, Taken or Missed")
	}
	if req.ScheduledDate != "" {
		if _, err := schedule.ParseDate(req.ScheduledDate); err != nil {
			return StatusChange{}, validationError("scheduledDate must be formatted as YYYY-MM-DD")
		}
	}
	if strings.TrimSpace(req.MedicineID) == "" && strings.TrimSpace(req.Medication) == "" {
		return StatusChange{}, validationError("medicineId or medication is required")
	}
	return StatusChange{
		PatientID:       strings.TrimSpace(req.PatientID),
		MedicineID:      strings.TrimSpace(req.MedicineID),
		PrescriptionID:  strings.TrimSpace(req.PrescriptionID),
		Medication:      strings.TrimSpace(req.Medication),
		Period:          period,
		Date:            req.ScheduledDate,
		Status:          status,
		IsNewMedication: req.IsNewMedication,
	}, nil
}

// customMedicineID derives a stable ledger id for a dose that is not tied to a
// prescribed medicine
func customMedicineID(label string) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(label), "-"), "-")
	return "custom:" + slug
}

// SetStatus records a patient or doctor marking a dose
func (s *Service) SetStatus(ctx context.Context, principal models.Principal, change StatusChange) (*models.AdherenceRecord, error) {
	if err := s.Authorize(ctx, principal, change.PatientID); err != nil {
		return nil, err
	}
	record, err := s.setStatus(ctx, change)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	statusUpdatesTotal.WithLabelValues(string(change.Status), outcome).Inc()
	return record, err
}

// setStatus updates the record for the dose key, or creates it when the
// change allows. An insert that loses a race to a concurrent writer is
// retried as an update of the winning record.
func (s *Service) setStatus(ctx context.Context, c StatusChange) (*models.AdherenceRecord, error) {
	now := s.now()
	if c.Date == "" {
		c.Date = schedule.DayKey(now)
	}
	allowInsert := c.IsNewMedication
	if c.MedicineID == "" {
		c.MedicineID = customMedicineID(c.Medication)
		allowInsert = true
	}
	key := models.DoseKey{
		PatientID:     c.PatientID,
		MedicineID:    c.MedicineID,
		ScheduledDate: c.Date,
		ScheduledTime: c.Period,
	}

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err := s.Ledger.UpdateStatus(ctx, key, c.Status, now)
		if err == nil {
			return s.Ledger.FindByKey(ctx, key)
		}
		if !errors.Is(err, databases.ErrNotFound) {
			return nil, err
		}
		if !allowInsert {
			return nil, fmt.Errorf("%w: no record for medicine %s on %s %s", ErrAmbiguousUpsert, key.MedicineID, key.ScheduledDate, key.ScheduledTime)
		}

		record := &models.AdherenceRecord{
			PatientID:      key.PatientID,
			MedicineID:     key.MedicineID,
			PrescriptionID: c.PrescriptionID,
			Medication:     c.Medication,
			ScheduledDate:  key.ScheduledDate,
			ScheduledTime:  key.ScheduledTime,
			Status:         c.Status,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if c.Status == models.StatusMissed {
			record.MissedDoses = 1
		}
		err = s.Ledger.Insert(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, databases.ErrDuplicateKey) {
			return nil, err
		}
		zap.S().Debugw("adherence insert lost race, retrying as update",
			"patientId", key.PatientID,
			"medicineId", key.MedicineID,
			"attempt", attempt)
	}
	return nil, fmt.Errorf("adherence record for medicine %s kept changing after %d attempts", key.MedicineID, maxWriteAttempts)
}

// TodayDoses returns the doses of the given date for the patient, persisted
// records first and virtual Pending entries for everything not yet recorded.
// A zero date means the current schedule day.
func (s *Service) TodayDoses(ctx context.Context, principal models.Principal, patientID string, date time.Time) ([]models.TodayDose, error) {
	if err := s.Authorize(ctx, principal, patientID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = schedule.Day(s.now())
	}
	dateKey := schedule.DateKey(date)

	prescriptions, err := s.Prescriptions.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	records, err := s.Ledger.FindByPatientDate(ctx, patientID, dateKey)
	if err != nil {
		return nil, err
	}
	return MergeDoses(records, schedule.Expand(prescriptions, date), dateKey), nil
}

// MergeDoses combines ledger records with expected doses. A record and an
// expected dose with the same medicine and period yield one entry, taken
// from the record.
func MergeDoses(records []models.AdherenceRecord, expected []models.ExpectedDose, date string) []models.TodayDose {
	type key struct {
		medicineID string
		period     models.Period
	}
	byKey := make(map[key]models.ExpectedDose, len(expected))
	for _, d := range expected {
		byKey[key{d.MedicineID, d.Period}] = d
	}

	seen := map[key]bool{}
	out := make([]models.TodayDose, 0, len(records)+len(expected))
	for _, r := range records {
		k := key{r.MedicineID, r.ScheduledTime}
		if seen[k] {
			continue
		}
		seen[k] = true
		dose := models.TodayDose{
			ID:             r.ID.Hex(),
			MedicineID:     r.MedicineID,
			MedicineName:   r.Medication,
			PrescriptionID: r.PrescriptionID,
			ScheduledDate:  r.ScheduledDate,
			ScheduledTime:  r.ScheduledTime,
			Status:         r.Status,
			MissedDoses:    r.MissedDoses,
			ReminderSent:   r.ReminderSent,
		}
		if e, ok := byKey[k]; ok {
			dose.Dosage = e.Dosage
			dose.Instructions = e.Instructions
			if dose.MedicineName == "" {
				dose.MedicineName = e.MedicineName
			}
			if dose.PrescriptionID == "" {
				dose.PrescriptionID = e.PrescriptionID
			}
		}
		out = append(out, dose)
	}
	for _, e := range expected {
		k := key{e.MedicineID, e.Period}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, models.TodayDose{
			MedicineID:     e.MedicineID,
			MedicineName:   e.MedicineName,
			Dosage:         e.Dosage,
			Instructions:   e.Instructions,
			PrescriptionID: e.PrescriptionID,
			ScheduledDate:  date,
			ScheduledTime:  e.Period,
			Status:         models.StatusPending,
			Virtual:        true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Index() < out[j].ScheduledTime.Index()
	})
	return out
}
