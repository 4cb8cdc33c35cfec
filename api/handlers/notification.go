package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/api"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/notification"
)

// Notifications upgrades authenticated callers to the live notification socket
type Notifications struct {
	Hub     *notification.Hub
	Auth    *api.MiddlewareDB
	Service *adherence.Service
}

// WebsocketHandler subscribes the caller to a patient's events. Patients
// always get their own; doctors pass ?patientId= for an assigned patient.
func (h Notifications) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Auth.PrincipalFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorMessageResponse{Message: "unauthorized"})
		return
	}
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		patientID = p.ID
	}
	if err := h.Service.Authorize(r.Context(), p, patientID); err != nil {
		writeError(w, r, err)
		return
	}
	zap.S().Debugw("notification socket opening", "patientId", patientID, "userId", p.ID)
	h.Hub.ServeWS(w, r, patientID)
}
