// Package schedule turns prescriptions into the doses a patient owes on a
// given day and knows which daily periods are over at a given time.
package schedule

import (
	"time"

	"github.com/patient-tracker/adherence-api/models"
)

// Hour boundaries of the daily periods, in server local time.
const (
	MorningStartHour   = 5
	AfternoonStartHour = 12
	EveningStartHour   = 18
	NightStartHour     = 22
)

// DateLayout is the calendar-day format used for scheduled dates
const DateLayout = "2006-01-02"

// PeriodFor returns the period that contains the given hour. Hours before
// MorningStartHour belong to the previous evening.
func PeriodFor(hour int) models.Period {
	switch {
	case hour >= MorningStartHour && hour < AfternoonStartHour:
		return models.Morning
	case hour >= AfternoonStartHour && hour < EveningStartHour:
		return models.Afternoon
	default:
		return models.Evening
	}
}

// PeriodsBefore returns the periods of the same day strictly before p
func PeriodsBefore(p models.Period) []models.Period {
	i := p.Index()
	if i <= 0 {
		return nil
	}
	out := make([]models.Period, i)
	copy(out, models.Periods[:i])
	return out
}

// SweepPeriods returns the periods a background sweep may close at the given
// hour of the current day.
func SweepPeriods(hour int) []models.Period {
	switch {
	case hour >= NightStartHour || hour < MorningStartHour:
		return []models.Period{models.Morning, models.Afternoon, models.Evening}
	case hour >= EveningStartHour:
		return []models.Period{models.Morning, models.Afternoon}
	case hour >= AfternoonStartHour:
		return []models.Period{models.Morning}
	}
	return nil
}

// IsSweepCheckpoint reports whether a minute tick at t should run a sweep:
// five minutes past a period transition, or every quarter hour.
func IsSweepCheckpoint(t time.Time) bool {
	h, m := t.Hour(), t.Minute()
	if m == 5 && (h == AfternoonStartHour || h == EveningStartHour || h == NightStartHour) {
		return true
	}
	return m%15 == 0
}

// DateKey formats t as a scheduled date in its own location
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a scheduled date in the server's local time zone
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// Day returns the schedule day t belongs to. Hours before MorningStartHour
// still belong to the previous day's evening.
func Day(t time.Time) time.Time {
	if t.Hour() < MorningStartHour {
		t = t.AddDate(0, 0, -1)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats the schedule day of t as a scheduled date
func DayKey(t time.Time) string {
	return DateKey(Day(t))
}

// RemindersOpen reports whether reminders may be sent at t. Nothing is
// reminded between NightStartHour and MorningStartHour.
func RemindersOpen(t time.Time) bool {
	h := t.Hour()
	return h >= MorningStartHour && h < NightStartHour
}

// PeriodEnd returns the moment period closes on the given day
func PeriodEnd(day time.Time, p models.Period) time.Time {
	hour := NightStartHour
	switch p {
	case models.Morning:
		hour = AfternoonStartHour
	case models.Afternoon:
		hour = EveningStartHour
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}
