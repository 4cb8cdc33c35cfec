package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/api"
	"github.com/patient-tracker/adherence-api/config"
	"github.com/patient-tracker/adherence-api/models"
)

// errorStatus maps a service error to the status code returned to callers
func errorStatus(err error) int {
	switch {
	case errors.Is(err, adherence.ErrValidation), errors.Is(err, adherence.ErrAmbiguousUpsert):
		return http.StatusBadRequest
	case errors.Is(err, adherence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, adherence.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// writeError reports err with its status. Unexpected errors are logged and
// hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		config.ErrorStatus("internal server error", http.StatusInternalServerError, w, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, err))
		return
	}
	writeJSON(w, status, models.ErrorMessageResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, models.ErrorMessageResponse{Message: message})
}

// principal returns the caller set by the auth middleware
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := api.PrincipalFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorMessageResponse{Message: "unauthorized"})
	}
	return p, ok
}

// queryDays reads the days query parameter. Missing or invalid values yield
// zero, which the service replaces with its default window.
func queryDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 0 {
		return 0
	}
	return days
}
