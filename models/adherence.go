package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdherenceStatus is the state of a single scheduled dose
type AdherenceStatus string

const (
	StatusPending AdherenceStatus = "Pending"
	StatusTaken   AdherenceStatus = "Taken"
	StatusMissed  AdherenceStatus = "Missed"
)

// ParseAdherenceStatus accepts a status name in any letter case
func ParseAdherenceStatus(s string) (AdherenceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "taken":
		return StatusTaken, true
	case "missed":
		return StatusMissed, true
	}
	return "", false
}

// DoseKey uniquely identifies a ledger entry
type DoseKey struct {
	PatientID     string
	MedicineID    string
	ScheduledDate string
	ScheduledTime Period
}

// AdherenceRecord holds the structure for the medicine_adherence collection in mongo
type AdherenceRecord struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PatientID      string             `json:"patientId" bson:"patientId"`
	MedicineID     string             `json:"medicineId" bson:"medicineId"`
	PrescriptionID string             `json:"prescriptionId,omitempty" bson:"prescriptionId,omitempty"`
	Medication     string             `json:"medication" bson:"medication"`
	ScheduledDate  string             `json:"scheduledDate" bson:"scheduledDate"`
	ScheduledTime  Period             `json:"scheduledTime" bson:"scheduledTime"`
	Status         AdherenceStatus    `json:"adherenceStatus" bson:"adherenceStatus"`
	MissedDoses    int                `json:"missedDoses" bson:"missedDoses"`
	ReminderSent   bool               `json:"reminderSent" bson:"reminderSent"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Key returns the unique ledger key of the record
func (r AdherenceRecord) Key() DoseKey {
	return DoseKey{
		PatientID:     r.PatientID,
		MedicineID:    r.MedicineID,
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
	}
}

// PendingFilter selects Pending records for a sweep. An empty PatientID
// matches every patient.
type PendingFilter struct {
	PatientID     string
	ScheduledDate string
	Periods       []Period
}

// StatusUpdateRequest is the body accepted by the update-status endpoint
type StatusUpdateRequest struct {
	PatientID       string `json:"patientId"`
	MedicineID      string `json:"medicineId"`
	PrescriptionID  string `json:"prescriptionId"`
	Medication      string `json:"medication"`
	ScheduledTime   string `json:"scheduledTime"`
	ScheduledDate   string `json:"scheduledDate,omitempty"`
	Status          string `json:"status"`
	IsNewMedication bool   `json:"isNewMedication"`
}

// StatusUpdateResponse is returned after a dose status change
type StatusUpdateResponse struct {
	Message string           `json:"message"`
	Record  *AdherenceRecord `json:"record"`
}
