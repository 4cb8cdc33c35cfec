package models

// AdherenceStats is the response of the adherence-stats endpoint
type AdherenceStats struct {
	Summary    AdherenceSummary `json:"summary"`
	DailyStats []DailyAdherence `json:"dailyStats"`
}

// AdherenceSummary aggregates ledger records over the requested window
type AdherenceSummary struct {
	TotalMedications int     `json:"totalMedications"`
	TakenCount       int     `json:"takenCount"`
	MissedCount      int     `json:"missedCount"`
	PendingCount     int     `json:"pendingCount"`
	TotalMissedDoses int     `json:"totalMissedDoses"`
	AdherenceRate    float64 `json:"adherenceRate"`
}

// DailyAdherence holds the counts for a single scheduled date
type DailyAdherence struct {
	Date          string  `json:"date"`
	Total         int     `json:"total"`
	Taken         int     `json:"taken"`
	Missed        int     `json:"missed"`
	Pending       int     `json:"pending"`
	AdherenceRate float64 `json:"adherenceRate"`
}
