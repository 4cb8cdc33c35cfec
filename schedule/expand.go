package schedule

import (
	"time"

	"github.com/patient-tracker/adherence-api/models"
)

// Expand returns the doses owed on date by the given prescriptions. Doses are
// keyed by medicine row id and period, so a row listed twice yields one dose.
// Rows with the same name but different ids stay separate doses.
func Expand(prescriptions []models.Prescription, date time.Time) []models.ExpectedDose {
	type key struct {
		medicineID string
		period     models.Period
	}
	seen := map[key]bool{}
	var doses []models.ExpectedDose
	for _, p := range prescriptions {
		start := p.Date
		if start.IsZero() {
			start = p.CreatedAt
		}
		for _, m := range p.Medicines {
			if !IsActive(start, m.Duration, date) {
				continue
			}
			id := m.ID.Hex()
			for _, period := range models.Periods {
				if !m.Timing.Includes(period) {
					continue
				}
				k := key{id, period}
				if seen[k] {
					continue
				}
				seen[k] = true
				doses = append(doses, models.ExpectedDose{
					MedicineID:     id,
					MedicineName:   m.Name,
					Dosage:         m.Dosage,
					Instructions:   m.Instructions,
					Period:         period,
					PrescriptionID: p.ID.Hex(),
				})
			}
		}
	}
	return doses
}

// DueIn filters doses down to those scheduled in period
func DueIn(doses []models.ExpectedDose, period models.Period) []models.ExpectedDose {
	var out []models.ExpectedDose
	for _, d := range doses {
		if d.Period == period {
			out = append(out, d)
		}
	}
	return out
}
