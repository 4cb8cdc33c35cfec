package adherence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

func morningOnly(name, duration string) models.PrescribedMedicine {
	return models.PrescribedMedicine{
		Name:         name,
		Dosage:       "1 tablet",
		Duration:     duration,
		Instructions: "after food",
		Timing:       models.Timing{Morning: true},
	}
}

func TestParseStatusChange(t *testing.T) {
	valid := models.StatusUpdateRequest{
		PatientID:     "p1",
		MedicineID:    "m1",
		ScheduledTime: "morning",
		ScheduledDate: "2024-05-01",
		Status:        "Taken",
	}

	change, err := ParseStatusChange(valid)
	require.NoError(t, err)
	assert.Equal(t, models.Morning, change.Period)
	assert.Equal(t, models.StatusTaken, change.Status)

	tests := []struct {
		name   string
		mutate func(r *models.StatusUpdateRequest)
	}{
		{"missing patient", func(r *models.StatusUpdateRequest) { r.PatientID = " " }},
		{"bad period", func(r *models.StatusUpdateRequest) { r.ScheduledTime = "night" }},
		{"bad status", func(r *models.StatusUpdateRequest) { r.Status = "Skipped" }},
		{"bad date", func(r *models.StatusUpdateRequest) { r.ScheduledDate = "01/05/2024" }},
		{"no medicine", func(r *models.StatusUpdateRequest) { r.MedicineID = ""; r.Medication = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := ParseStatusChange(req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTodayDosesWithoutRecordsMatchesExpand(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	f.prescribe(
		models.PrescribedMedicine{Name: "Metformin", Dosage: "500mg", Duration: "7 days", Instructions: "with food", Timing: models.Timing{Morning: true, Evening: true}},
		models.PrescribedMedicine{Name: "Lisinopril", Dosage: "10mg", Duration: "2 weeks", Instructions: "once", Timing: models.Timing{Afternoon: true}},
	)
	rx, _ := f.rx.FindByPatient(context.Background(), f.patientID())
	expected := schedule.Expand(rx, schedule.Day(f.clock))

	doses, err := f.svc.TodayDoses(context.Background(), f.asPatient(), f.patientID(), time.Time{})
	require.NoError(t, err)
	require.Len(t, doses, len(expected))
	require.Len(t, doses, 3)
	for _, d := range doses {
		assert.Equal(t, models.StatusPending, d.Status)
		assert.True(t, d.Virtual)
		assert.Equal(t, "2024-05-01", d.ScheduledDate)
	}
	assert.Equal(t, models.Morning, doses[0].ScheduledTime)
	assert.Equal(t, models.Afternoon, doses[1].ScheduledTime)
	assert.Equal(t, models.Evening, doses[2].ScheduledTime)
	assert.Empty(t, f.ledger.all(), "reading doses must not write to the ledger")
}

func TestTodayDosesEarlyMorningBelongsToPreviousDay(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	f.prescribe(morningOnly("Aspirin", "7 days"))
	f.clock = at(2, 2, 30)

	doses, err := f.svc.TodayDoses(context.Background(), f.asPatient(), f.patientID(), time.Time{})
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, "2024-05-01", doses[0].ScheduledDate)
}

func TestTodayDosesPrefersPersistedRecord(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	p := f.prescribe(models.PrescribedMedicine{Name: "Metformin", Dosage: "500mg", Duration: "7 days", Instructions: "with food", Timing: models.Timing{Morning: true, Evening: true}})
	medID := p.Medicines[0].ID.Hex()
	f.ledger.put(models.AdherenceRecord{
		PatientID:     f.patientID(),
		MedicineID:    medID,
		ScheduledDate: "2024-05-01",
		ScheduledTime: models.Morning,
		Status:        models.StatusTaken,
	})

	doses, err := f.svc.TodayDoses(context.Background(), f.asPatient(), f.patientID(), time.Time{})
	require.NoError(t, err)
	require.Len(t, doses, 2)
	assert.Equal(t, models.StatusTaken, doses[0].Status)
	assert.False(t, doses[0].Virtual)
	assert.Equal(t, "Metformin", doses[0].MedicineName)
	assert.Equal(t, "500mg", doses[0].Dosage)
	assert.Equal(t, p.ID.Hex(), doses[0].PrescriptionID)
	assert.Equal(t, models.StatusPending, doses[1].Status)
	assert.True(t, doses[1].Virtual)
}

func TestSetStatusWithoutRecordIsAmbiguous(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	p := f.prescribe(morningOnly("Aspirin", "7 days"))

	_, err := f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
		PatientID:  f.patientID(),
		MedicineID: p.Medicines[0].ID.Hex(),
		Period:     models.Morning,
		Status:     models.StatusTaken,
	})
	assert.ErrorIs(t, err, ErrAmbiguousUpsert)
	assert.Empty(t, f.ledger.all())
}

func TestSetStatusUpdatesExistingRecord(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	f.ledger.put(models.AdherenceRecord{
		PatientID:     f.patientID(),
		MedicineID:    "m1",
		ScheduledDate: "2024-05-01",
		ScheduledTime: models.Morning,
		Status:        models.StatusPending,
		ReminderSent:  true,
	})

	rec, err := f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
		PatientID:  f.patientID(),
		MedicineID: "m1",
		Period:     models.Morning,
		Status:     models.StatusMissed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, rec.Status)
	assert.Equal(t, 1, rec.MissedDoses)
	assert.True(t, rec.ReminderSent)

	rec, err = f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
		PatientID:  f.patientID(),
		MedicineID: "m1",
		Period:     models.Morning,
		Status:     models.StatusMissed,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.MissedDoses, "repeating Missed must not count twice")
	assert.Len(t, f.ledger.all(), 1)
}

func TestSetStatusCustomMedicationCreatesRecord(t *testing.T) {
	f := newFixture(at(1, 19, 0))

	rec, err := f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
		PatientID:  f.patientID(),
		Medication: "Vitamin D3",
		Period:     models.Evening,
		Status:     models.StatusTaken,
	})
	require.NoError(t, err)
	assert.Equal(t, "custom:vitamin-d3", rec.MedicineID)
	assert.Equal(t, "2024-05-01", rec.ScheduledDate)
	assert.Equal(t, models.StatusTaken, rec.Status)
}

func TestSetStatusRejectsOtherPatient(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	other := models.Principal{ID: "someone-else", Role: models.RolePatient}

	_, err := f.svc.SetStatus(context.Background(), other, StatusChange{
		PatientID:       f.patientID(),
		MedicineID:      "m1",
		Period:          models.Morning,
		Status:          models.StatusTaken,
		IsNewMedication: true,
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.ledger.all())
}

func TestConcurrentSetStatusCreatesOneRecord(t *testing.T) {
	f := newFixture(at(1, 9, 0))
	var barrier sync.WaitGroup
	barrier.Add(2)
	f.ledger.beforeInsert = func() {
		barrier.Done()
		barrier.Wait()
	}

	statuses := []models.AdherenceStatus{models.StatusTaken, models.StatusMissed}
	errs := make([]error, len(statuses))
	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status models.AdherenceStatus) {
			defer wg.Done()
			_, errs[i] = f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
				PatientID:       f.patientID(),
				MedicineID:      "m1",
				Period:          models.Morning,
				Date:            "2024-05-01",
				Status:          status,
				IsNewMedication: true,
			})
		}(i, status)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	records := f.ledger.all()
	require.Len(t, records, 1)
	assert.Contains(t, statuses, records[0].Status)
}

func TestMergeDosesDeduplicatesRecords(t *testing.T) {
	records := []models.AdherenceRecord{
		{MedicineID: "m1", ScheduledTime: models.Evening, Status: models.StatusTaken, ScheduledDate: "2024-05-01"},
		{MedicineID: "m1", ScheduledTime: models.Evening, Status: models.StatusMissed, ScheduledDate: "2024-05-01"},
	}
	expected := []models.ExpectedDose{
		{MedicineID: "m1", MedicineName: "A", Period: models.Evening},
		{MedicineID: "m2", MedicineName: "B", Period: models.Morning},
	}

	doses := MergeDoses(records, expected, "2024-05-01")
	require.Len(t, doses, 2)
	assert.Equal(t, "m2", doses[0].MedicineID)
	assert.True(t, doses[0].Virtual)
	assert.Equal(t, "m1", doses[1].MedicineID)
	assert.Equal(t, models.StatusTaken, doses[1].Status)
	assert.Equal(t, "A", doses[1].MedicineName)
}
