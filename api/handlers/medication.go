package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// Medication exposes a patient's daily doses and adherence history
type Medication struct {
	Service *adherence.Service
}

// TodayHandler lists the patient's doses for today, or for ?date=YYYY-MM-DD
func (h Medication) TodayHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := schedule.ParseDate(raw)
		if err != nil {
			badRequest(w, "date must be formatted as YYYY-MM-DD")
			return
		}
		date = parsed
	}

	doses, err := h.Service.TodayDoses(r.Context(), p, patientID, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		date = h.Service.Today()
	}
	writeJSON(w, http.StatusOK, models.TodayDosesResponse{
		PatientID: patientID,
		Date:      schedule.DateKey(date),
		Doses:     doses,
	})
}

// UpdateStatusHandler marks one dose as Taken, Missed or Pending
func (h Medication) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	change, err := adherence.ParseStatusChange(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.Service.SetStatus(r.Context(), p, change)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusUpdateResponse{
		Message: "Medication status updated successfully",
		Record:  record,
	})
}

// HistoryHandler returns the patient's ledger records for ?days=, default 7
func (h Medication) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), p, mux.Vars(r)["patientId"], queryDays(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// StatsHandler returns adherence rates for ?days=, default 30
func (h Medication) StatsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), p, mux.Vars(r)["patientId"], queryDays(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
