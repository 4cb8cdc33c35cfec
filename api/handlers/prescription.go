package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/models"
)

// Prescription exposes prescription management to doctors and patients
type Prescription struct {
	Service *adherence.Service
}

// CreatePrescriptionHandler stores a prescription written by the calling doctor
func (h Prescription) CreatePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req models.PrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	created, err := h.Service.CreatePrescription(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PrescriptionResponse{
		Message:      "Prescription created successfully",
		Prescription: created,
	})
}

// DeletePrescriptionHandler removes a prescription and its adherence records
func (h Prescription) DeletePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["prescriptionId"]

	if err := h.Service.DeletePrescription(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Prescription deleted successfully"})
}

// PrescriptionsHandler lists a patient's prescriptions, newest first
func (h Prescription) PrescriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]

	prescriptions, err := h.Service.ListPrescriptions(r.Context(), p, patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prescriptions)
}
