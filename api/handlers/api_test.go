package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/api"
	"github.com/patient-tracker/adherence-api/config"
	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/databases/mocks"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/notification"
	"github.com/patient-tracker/adherence-api/tokens"
)

type nopMailer struct{}

func (nopMailer) SendReminderEmail(context.Context, string, string, []models.ExpectedDose, models.Period) error {
	return nil
}

type testApp struct {
	*App
	rx     *mocks.PrescriptionDatabase
	ledger *mocks.AdherenceDatabase
	users  *mocks.UserDatabase

	patient models.Principal
	doctor  models.Principal
}

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		rx:      &mocks.PrescriptionDatabase{},
		ledger:  &mocks.AdherenceDatabase{},
		users:   &mocks.UserDatabase{},
		patient: models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RolePatient},
		doctor:  models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleDoctor},
	}
	issuer, err := tokens.NewIssuer("handler-test-secret", time.Hour)
	require.NoError(t, err)

	hub := notification.NewHub()
	svc := adherence.NewService(ta.rx, ta.ledger, ta.users, hub, nopMailer{})
	svc.Now = func() time.Time { return testNow }
	auth := &api.MiddlewareDB{DB: ta.users, Tokens: issuer}
	auth.SetupGoGuardian()

	ta.App = &App{
		Config:  config.Config{RequestTimeout: 5 * time.Second},
		Service: svc,
		Gate:    adherence.NewReminderGate(time.Hour, func(context.Context, models.Period) {}),
		Hub:     hub,
		Auth:    auth,
	}
	ta.Router = ta.New()
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}, as *models.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		token, _, err := ta.Auth.Tokens.Issue(*as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ta.Router.ServeHTTP(rr, req)
	return rr
}

func (ta *testApp) assignedPatient() *models.User {
	id, _ := primitive.ObjectIDFromHex(ta.patient.ID)
	return &models.User{ID: id, Name: "Jane", Email: "jane@example.com", Role: models.RolePatient, DoctorIDs: []string{ta.doctor.ID}}
}

func TestHealthAndMetrics(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"alive":true`)

	rr = ta.do(t, "GET", "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReminderTriggerOnlyOnAPIRoutes(t *testing.T) {
	ta := newTestApp(t)
	var dispatched int32
	ta.Gate = adherence.NewReminderGate(time.Hour, func(context.Context, models.Period) {
		atomic.AddInt32(&dispatched, 1)
	})
	ta.Gate.Now = func() time.Time { return testNow }
	ta.Router = ta.New()

	ta.do(t, "GET", "/health", nil, nil)
	ta.do(t, "GET", "/metrics", nil, nil)
	ta.Gate.Wait()
	assert.Equal(t, int32(0), atomic.LoadInt32(&dispatched))

	ta.do(t, "GET", "/api/v1/patient/medications/today/"+ta.patient.ID, nil, nil)
	ta.Gate.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&dispatched))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, "GET", "/api/v1/patient/medications/today/"+ta.patient.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ta.do(t, "GET", "/ws/notifications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTodayHandler(t *testing.T) {
	ta := newTestApp(t)
	prescription := models.Prescription{
		ID:        primitive.NewObjectID(),
		PatientID: ta.patient.ID,
		Date:      testNow.Add(-2 * time.Hour),
		Medicines: []models.PrescribedMedicine{{
			ID:           primitive.NewObjectID(),
			Name:         "Aspirin",
			Dosage:       "100mg",
			Duration:     "7 days",
			Instructions: "after breakfast",
			Timing:       models.Timing{Morning: true, Evening: true},
		}},
	}
	ta.rx.On("FindByPatient", mock.Anything, ta.patient.ID).Return([]models.Prescription{prescription}, nil)
	ta.ledger.On("FindByPatientDate", mock.Anything, ta.patient.ID, "2024-05-01").Return([]models.AdherenceRecord{}, nil)

	rr := ta.do(t, "GET", "/api/v1/patient/medications/today/"+ta.patient.ID, nil, &ta.patient)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.TodayDosesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2024-05-01", resp.Date)
	require.Len(t, resp.Doses, 2)
	assert.Equal(t, models.Morning, resp.Doses[0].ScheduledTime)
	assert.Equal(t, models.StatusPending, resp.Doses[0].Status)
	assert.True(t, resp.Doses[0].Virtual)
}

func TestTodayHandlerRejectsBadDateAndOtherPatients(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, "GET", "/api/v1/patient/medications/today/"+ta.patient.ID+"?date=yesterday", nil, &ta.patient)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	other := primitive.NewObjectID().Hex()
	rr = ta.do(t, "GET", "/api/v1/patient/medications/today/"+other, nil, &ta.patient)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdateStatusHandler(t *testing.T) {
	ta := newTestApp(t)
	key := models.DoseKey{PatientID: ta.patient.ID, MedicineID: "m1", ScheduledDate: "2024-05-01", ScheduledTime: models.Morning}
	ta.ledger.On("UpdateStatus", mock.Anything, key, models.StatusTaken, mock.Anything).Return(nil)
	ta.ledger.On("FindByKey", mock.Anything, key).Return(&models.AdherenceRecord{
		PatientID:     ta.patient.ID,
		MedicineID:    "m1",
		ScheduledDate: "2024-05-01",
		ScheduledTime: models.Morning,
		Status:        models.StatusTaken,
	}, nil)

	rr := ta.do(t, "POST", "/api/v1/patient/medications/update-status", models.StatusUpdateRequest{
		PatientID:     ta.patient.ID,
		MedicineID:    "m1",
		ScheduledTime: "morning",
		Status:        "Taken",
	}, &ta.patient)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.StatusUpdateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusTaken, resp.Record.Status)
}

func TestUpdateStatusHandlerErrors(t *testing.T) {
	ta := newTestApp(t)
	ta.ledger.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(databases.ErrNotFound)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"malformed body", "not an object", http.StatusBadRequest},
		{"unknown status", models.StatusUpdateRequest{PatientID: ta.patient.ID, MedicineID: "m1", ScheduledTime: "morning", Status: "Skipped"}, http.StatusBadRequest},
		{"no record and not new", models.StatusUpdateRequest{PatientID: ta.patient.ID, MedicineID: "m1", ScheduledTime: "morning", Status: "Taken"}, http.StatusBadRequest},
		{"another patient", models.StatusUpdateRequest{PatientID: primitive.NewObjectID().Hex(), MedicineID: "m1", ScheduledTime: "morning", Status: "Taken"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.do(t, "POST", "/api/v1/patient/medications/update-status", tt.body, &ta.patient)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			var resp models.ErrorMessageResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestCreatePrescriptionHandler(t *testing.T) {
	ta := newTestApp(t)
	ta.users.On("FindByID", mock.Anything, ta.patient.ID).Return(ta.assignedPatient(), nil)
	ta.rx.On("Insert", mock.Anything, mock.MatchedBy(func(p *models.Prescription) bool {
		return p.PatientID == ta.patient.ID && p.DoctorID == ta.doctor.ID && p.Condition == adherence.DefaultCondition
	})).Return(nil).Once()

	body := models.PrescriptionRequest{
		PatientID: ta.patient.ID,
		Medicines: []models.PrescribedMedicineRequest{{
			Name:         "Amoxicillin",
			Dosage:       "250mg",
			Duration:     "5 days",
			Instructions: "with water",
			Timing:       &models.Timing{Morning: true},
		}},
	}
	rr := ta.do(t, "POST", "/api/v1/doctor/prescription", body, &ta.doctor)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp models.PrescriptionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Prescription)
	assert.Len(t, resp.Prescription.Medicines, 1)
	ta.rx.AssertExpectations(t)

	rr = ta.do(t, "POST", "/api/v1/doctor/prescription", body, &ta.patient)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	body.Medicines[0].Timing = &models.Timing{}
	rr = ta.do(t, "POST", "/api/v1/doctor/prescription", body, &ta.doctor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeletePrescriptionHandlerNotFound(t *testing.T) {
	ta := newTestApp(t)
	id := primitive.NewObjectID().Hex()
	ta.rx.On("FindByID", mock.Anything, id).Return(nil, databases.ErrNotFound)

	rr := ta.do(t, "DELETE", "/api/v1/doctor/prescription/"+id, nil, &ta.doctor)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeletePrescriptionHandler(t *testing.T) {
	ta := newTestApp(t)
	medID := primitive.NewObjectID()
	prescription := &models.Prescription{
		ID:        primitive.NewObjectID(),
		PatientID: ta.patient.ID,
		Medicines: []models.PrescribedMedicine{{ID: medID}},
	}
	id := prescription.ID.Hex()
	ta.rx.On("FindByID", mock.Anything, id).Return(prescription, nil)
	ta.users.On("FindByID", mock.Anything, ta.patient.ID).Return(ta.assignedPatient(), nil)
	ta.ledger.On("DeleteForPrescription", mock.Anything, id, []string{medID.Hex()}).Return(int64(3), nil).Once()
	ta.rx.On("Delete", mock.Anything, id).Return(nil).Once()

	rr := ta.do(t, "DELETE", "/api/v1/doctor/prescription/"+id, nil, &ta.doctor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ta.ledger.AssertExpectations(t)
	ta.rx.AssertExpectations(t)
}

func TestAssignPatientHandler(t *testing.T) {
	ta := newTestApp(t)
	id, _ := primitive.ObjectIDFromHex(ta.patient.ID)
	ta.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{ID: id, Email: "jane@example.com", Role: models.RolePatient}, nil)
	ta.users.On("AssignDoctor", mock.Anything, ta.patient.ID, ta.doctor.ID).Return(nil).Once()

	rr := ta.do(t, "POST", "/api/v1/doctor/patients", models.AssignPatientRequest{Patient: "Jane (jane@example.com)"}, &ta.doctor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.AssignPatientResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{ta.doctor.ID}, resp.Patient.DoctorIDs)
	ta.users.AssertExpectations(t)
}

func TestSendRemindersHandler(t *testing.T) {
	ta := newTestApp(t)
	ta.rx.On("PatientIDs", mock.Anything).Return([]string{}, nil)

	rr := ta.do(t, "POST", "/api/v1/admin/send-medication-reminders", models.ReminderRequest{Period: "evening"}, &ta.patient)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ta.do(t, "POST", "/api/v1/admin/send-medication-reminders", models.ReminderRequest{Period: "night"}, &ta.doctor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(t, "POST", "/api/v1/admin/send-medication-reminders", nil, &ta.doctor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res models.ReminderResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, models.Morning, res.Period)
}

func TestStatsHandlerHidesInternalErrors(t *testing.T) {
	ta := newTestApp(t)
	ta.ledger.On("FindByPatientDateRange", mock.Anything, ta.patient.ID, "2024-04-01", "2024-05-01").Return(nil, errors.New("connection reset"))

	rr := ta.do(t, "GET", "/api/v1/patient/medications/adherence-stats/"+ta.patient.ID, nil, &ta.patient)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message": "internal server error"}`, rr.Body.String())
}

func TestHistoryHandler(t *testing.T) {
	ta := newTestApp(t)
	ta.users.On("FindByID", mock.Anything, ta.patient.ID).Return(ta.assignedPatient(), nil)
	ta.ledger.On("FindByPatientDateRange", mock.Anything, ta.patient.ID, "2024-04-28", "2024-05-01").Return([]models.AdherenceRecord{
		{PatientID: ta.patient.ID, MedicineID: "m1", ScheduledDate: "2024-04-30", ScheduledTime: models.Morning, Status: models.StatusMissed},
	}, nil)

	rr := ta.do(t, "GET", "/api/v1/patient/medications/history/"+ta.patient.ID+"?days=3", nil, &ta.doctor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.MedicationHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2024-04-28", resp.From)
	assert.Len(t, resp.Records, 1)
}
