package adherence

import (
	"context"
	"math"
	"sort"

	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// Default look-back windows, in days
const (
	DefaultHistoryDays = 7
	DefaultStatsDays   = 30
)

func (s *Service) window(days, fallback int) (string, string) {
	if days <= 0 {
		days = fallback
	}
	today := schedule.Day(s.now())
	return schedule.DateKey(today.AddDate(0, 0, -days)), schedule.DateKey(today)
}

// History returns the patient's ledger records for the last days days
func (s *Service) History(ctx context.Context, principal models.Principal, patientID string, days int) (*models.MedicationHistory, error) {
	if err := s.Authorize(ctx, principal, patientID); err != nil {
		return nil, err
	}
	from, to := s.window(days, DefaultHistoryDays)
	records, err := s.Ledger.FindByPatientDateRange(ctx, patientID, from, to)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.AdherenceRecord{}
	}
	return &models.MedicationHistory{PatientID: patientID, From: from, To: to, Records: records}, nil
}

// Stats summarises the patient's adherence over the last days days. The rate
// ignores Pending doses.
func (s *Service) Stats(ctx context.Context, principal models.Principal, patientID string, days int) (*models.AdherenceStats, error) {
	if err := s.Authorize(ctx, principal, patientID); err != nil {
		return nil, err
	}
	from, to := s.window(days, DefaultStatsDays)
	records, err := s.Ledger.FindByPatientDateRange(ctx, patientID, from, to)
	if err != nil {
		return nil, err
	}
	prescriptions, err := s.Prescriptions.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	medicines := map[string]bool{}
	for _, p := range prescriptions {
		for _, id := range p.MedicineIDs() {
			medicines[id] = true
		}
	}
	return Summarize(records, len(medicines)), nil
}

// Summarize aggregates ledger records into overall and per-date counts
func Summarize(records []models.AdherenceRecord, totalMedications int) *models.AdherenceStats {
	stats := &models.AdherenceStats{
		Summary:    models.AdherenceSummary{TotalMedications: totalMedications},
		DailyStats: []models.DailyAdherence{},
	}
	daily := map[string]*models.DailyAdherence{}
	for _, r := range records {
		d, ok := daily[r.ScheduledDate]
		if !ok {
			d = &models.DailyAdherence{Date: r.ScheduledDate}
			daily[r.ScheduledDate] = d
		}
		d.Total++
		switch r.Status {
		case models.StatusTaken:
			d.Taken++
			stats.Summary.TakenCount++
		case models.StatusMissed:
			d.Missed++
			stats.Summary.MissedCount++
		default:
			d.Pending++
			stats.Summary.PendingCount++
		}
		stats.Summary.TotalMissedDoses += r.MissedDoses
	}
	stats.Summary.AdherenceRate = rate(stats.Summary.TakenCount, stats.Summary.MissedCount)

	for _, d := range daily {
		d.AdherenceRate = rate(d.Taken, d.Missed)
		stats.DailyStats = append(stats.DailyStats, *d)
	}
	sort.Slice(stats.DailyStats, func(i, j int) bool {
		return stats.DailyStats[i].Date < stats.DailyStats[j].Date
	})
	return stats
}

func rate(taken, missed int) float64 {
	if taken+missed == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(taken+missed)*10000) / 100
}
