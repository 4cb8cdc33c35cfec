package models

// ExpectedDose is a dose owed by a patient according to their prescriptions
type ExpectedDose struct {
	MedicineID     string `json:"medicineId"`
	MedicineName   string `json:"medicineName"`
	Dosage         string `json:"dosage"`
	Instructions   string `json:"instructions"`
	Period         Period `json:"scheduledTime"`
	PrescriptionID string `json:"prescriptionId"`
}

// TodayDose is one entry of the daily medication view. Entries without an ID
// have not been written to the ledger yet.
type TodayDose struct {
	ID             string          `json:"id,omitempty"`
	MedicineID     string          `json:"medicineId"`
	MedicineName   string          `json:"medicineName"`
	Dosage         string          `json:"dosage,omitempty"`
	Instructions   string          `json:"instructions,omitempty"`
	PrescriptionID string          `json:"prescriptionId,omitempty"`
	ScheduledDate  string          `json:"scheduledDate"`
	ScheduledTime  Period          `json:"scheduledTime"`
	Status         AdherenceStatus `json:"adherenceStatus"`
	MissedDoses    int             `json:"missedDoses"`
	ReminderSent   bool            `json:"reminderSent"`
	Virtual        bool            `json:"virtual"`
}

// TodayDosesResponse lists a patient's doses for one schedule day
type TodayDosesResponse struct {
	PatientID string      `json:"patientId"`
	Date      string      `json:"date"`
	Doses     []TodayDose `json:"medications"`
}
