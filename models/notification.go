package models

import "time"

// MedicationsUpdatedEvent is emitted when doses change without user action
const MedicationsUpdatedEvent = "medications-updated"

// Notification is pushed to a patient's connected sessions
type Notification struct {
	Event     string    `json:"event"`
	PatientID string    `json:"patientId"`
	Count     int       `json:"count"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
