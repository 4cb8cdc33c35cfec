package models

// MedicationHistory is the response of the history endpoint
type MedicationHistory struct {
	PatientID string            `json:"patientId"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Records   []AdherenceRecord `json:"records"`
}

// ReminderRequest is the body of the manual reminder trigger. An empty period
// means the period containing the current time.
type ReminderRequest struct {
	Period string `json:"period"`
}

// ReminderResult summarises one reminder dispatch
type ReminderResult struct {
	Period          Period `json:"period"`
	PatientsChecked int    `json:"patientsChecked"`
	EmailsSent      int    `json:"emailsSent"`
	RecordsSeeded   int    `json:"recordsSeeded"`
	Failures        int    `json:"failures"`
}

// SweepResult summarises one missed-dose sweep
type SweepResult struct {
	Marked    int            `json:"marked"`
	ByPatient map[string]int `json:"byPatient"`
}
