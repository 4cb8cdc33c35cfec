package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timing holds which daily periods a medicine is due
type Timing struct {
	Morning   bool `json:"morning" bson:"morning"`
	Afternoon bool `json:"afternoon" bson:"afternoon"`
	Evening   bool `json:"evening" bson:"evening"`
}

// Includes reports whether the medicine is due in the given period
func (t Timing) Includes(p Period) bool {
	switch p {
	case Morning:
		return t.Morning
	case Afternoon:
		return t.Afternoon
	case Evening:
		return t.Evening
	}
	return false
}

// Any reports whether at least one period is set
func (t Timing) Any() bool {
	return t.Morning || t.Afternoon || t.Evening
}

// PrescribedMedicine holds the structure for a medicine embedded in a prescription
type PrescribedMedicine struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	CatalogID    string             `json:"medicineId" bson:"medicineId"`
	Name         string             `json:"medicineName" bson:"medicineName"`
	Dosage       string             `json:"dosage" bson:"dosage"`
	Duration     string             `json:"duration" bson:"duration"`
	Instructions string             `json:"instructions" bson:"instructions"`
	Timing       Timing             `json:"timing" bson:"timing"`
}

// Prescription holds the structure for the prescriptions collection in mongo
type Prescription struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id"`
	PatientID string               `json:"patientId" bson:"patientId"`
	DoctorID  string               `json:"doctorId" bson:"doctorId"`
	Date      time.Time            `json:"date" bson:"date"`
	Condition string               `json:"condition" bson:"condition"`
	Medicines []PrescribedMedicine `json:"medicines" bson:"medicines"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

// MedicineIDs returns the ledger ids of every medicine on the prescription
func (p Prescription) MedicineIDs() []string {
	ids := make([]string, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		ids = append(ids, m.ID.Hex())
	}
	return ids
}

// PrescriptionRequest is the body accepted when a doctor creates a prescription
type PrescriptionRequest struct {
	PatientID string                      `json:"patientId"`
	Condition string                      `json:"condition"`
	Medicines []PrescribedMedicineRequest `json:"medicines"`
}

// PrescribedMedicineRequest is a single medicine inside a PrescriptionRequest
type PrescribedMedicineRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Duration     string  `json:"duration"`
	Instructions string  `json:"instructions"`
	Timing       *Timing `json:"timing"`
}

// PrescriptionResponse wraps a newly created prescription
type PrescriptionResponse struct {
	Message      string        `json:"message"`
	Prescription *Prescription `json:"prescription"`
}
