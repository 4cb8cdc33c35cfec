package adherence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patient-tracker/adherence-api/models"
)

func TestSendRemindersThenTakenSendsNothing(t *testing.T) {
	f := newFixture(at(1, 7, 0))
	p := f.prescribe(morningOnly("Aspirin", "7 days"))
	medID := p.Medicines[0].ID.Hex()

	f.clock = at(1, 8, 0)
	res, err := f.svc.SendReminders(context.Background(), models.Morning)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailsSent)
	assert.Equal(t, 1, res.RecordsSeeded)

	emails := f.mailer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "jane@example.com", emails[0].email)
	assert.Equal(t, models.Morning, emails[0].period)
	require.Len(t, emails[0].doses, 1)

	records := f.ledger.all()
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusPending, records[0].Status)
	assert.True(t, records[0].ReminderSent)
	assert.Equal(t, medID, records[0].MedicineID)
	assert.Equal(t, p.ID.Hex(), records[0].PrescriptionID)

	_, err = f.svc.SetStatus(context.Background(), f.asPatient(), StatusChange{
		PatientID:  f.patientID(),
		MedicineID: medID,
		Period:     models.Morning,
		Status:     models.StatusTaken,
	})
	require.NoError(t, err)

	res, err = f.svc.SendReminders(context.Background(), models.Morning)
	require.NoError(t, err)
	assert.Zero(t, res.EmailsSent)
	assert.Zero(t, res.RecordsSeeded)
	assert.Len(t, f.mailer.emails(), 1)
	assert.Len(t, f.ledger.all(), 1)
}

func TestSendRemindersIsolatesFailures(t *testing.T) {
	f := newFixture(at(1, 7, 0))
	f.prescribe(morningOnly("Aspirin", "7 days"))

	bob := models.User{ID: primitive.NewObjectID(), Name: "Bob", Email: "bob@example.com", Role: models.RolePatient}
	_ = f.users.Insert(context.Background(), &bob)
	_ = f.rx.Insert(context.Background(), &models.Prescription{
		PatientID: bob.ID.Hex(),
		Date:      f.clock,
		Medicines: []models.PrescribedMedicine{{ID: primitive.NewObjectID(), Name: "Ibuprofen", Dosage: "200mg", Duration: "5 days", Instructions: "as needed", Timing: models.Timing{Morning: true}}},
		CreatedAt: f.clock,
	})
	f.mailer.failTo["jane@example.com"] = errors.New("smtp down")

	res, err := f.svc.SendReminders(context.Background(), models.Morning)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PatientsChecked)
	assert.Equal(t, 1, res.EmailsSent)
	assert.Equal(t, 1, res.Failures)

	records := f.ledger.all()
	require.Len(t, records, 1)
	assert.Equal(t, bob.ID.Hex(), records[0].PatientID)
}

func TestSendRemindersSkipsPeriodsWithNothingDue(t *testing.T) {
	f := newFixture(at(1, 7, 0))
	f.prescribe(morningOnly("Aspirin", "7 days"))

	res, err := f.svc.SendReminders(context.Background(), models.Evening)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PatientsChecked)
	assert.Zero(t, res.EmailsSent)
	assert.Empty(t, f.mailer.emails())
	assert.Empty(t, f.ledger.all())
}

func TestReminderGateCooldown(t *testing.T) {
	now := at(1, 8, 0)
	var calls int32
	gate := NewReminderGate(4*time.Minute, func(ctx context.Context, period models.Period) {
		atomic.AddInt32(&calls, 1)
	})
	gate.Now = func() time.Time { return now }

	assert.True(t, gate.Trigger(models.Morning))
	assert.False(t, gate.Trigger(models.Morning))
	assert.True(t, gate.Trigger(models.Afternoon))
	gate.Wait()
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	now = now.Add(3 * time.Minute)
	assert.False(t, gate.Trigger(models.Morning))

	now = now.Add(2 * time.Minute)
	assert.True(t, gate.Trigger(models.Morning))
	gate.Wait()
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestReminderGateDispatchesThroughService(t *testing.T) {
	f := newFixture(at(1, 7, 0))
	f.prescribe(morningOnly("Aspirin", "7 days"))
	f.clock = at(1, 8, 0)

	gate := NewReminderGate(DefaultReminderCooldown, f.svc.GateDispatch)
	gate.Now = func() time.Time { return f.clock }
	gate.Trigger(models.Morning)
	gate.Trigger(models.Morning)
	gate.Wait()

	assert.Len(t, f.mailer.emails(), 1)
}
