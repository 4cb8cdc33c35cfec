package api

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthCheckResponse struct {
	Alive bool      `json:"alive"`
	Time  time.Time `json:"time"`
}

// HealthCheckHandler reports that the process is serving
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthCheckResponse{Alive: true, Time: time.Now().UTC()})
}
