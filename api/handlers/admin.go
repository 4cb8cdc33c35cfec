package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/models"
)

// Admin exposes manual triggers of the background jobs
type Admin struct {
	Service *adherence.Service
}

// SendRemindersHandler runs a reminder dispatch immediately, bypassing the
// cooldown gate. An empty period means the current one.
func (h Admin) SendRemindersHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleDoctor {
		writeError(w, r, adherence.ErrForbidden)
		return
	}

	var req models.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		badRequest(w, "invalid request body")
		return
	}
	period := h.Service.CurrentPeriod()
	if req.Period != "" {
		parsed, ok := models.ParsePeriod(req.Period)
		if !ok {
			badRequest(w, "period must be morning, afternoon or evening")
			return
		}
		period = parsed
	}

	zap.S().Infow("manual reminder dispatch", "period", period, "requestedBy", p.ID)
	res, err := h.Service.SendReminders(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
