package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/models"
)

// Doctor exposes the doctor's patient list
type Doctor struct {
	Service *adherence.Service
}

// AssignPatientHandler adds a patient to the calling doctor's list
func (h Doctor) AssignPatientHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req models.AssignPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	patient, err := h.Service.AssignPatient(r.Context(), p, req.Patient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AssignPatientResponse{
		Message: "Patient assigned successfully",
		Patient: patient,
	})
}
