package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var durationPattern = regexp.MustCompile(`(\d+)\s*(\w+)`)

// Unit is the calendar unit of a prescription duration
type Unit int

const (
	Days Unit = iota
	Weeks
	Months
)

// Duration is a parsed "<N> <unit>" prescription length
type Duration struct {
	Quantity int
	Unit     Unit
}

// ParseDuration reads strings such as "7 days", "2 weeks" or "1month". It
// returns false for anything it cannot interpret.
func ParseDuration(s string) (Duration, bool) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return Duration{}, false
	}
	unit := strings.ToLower(m[2])
	switch {
	case strings.Contains(unit, "day"):
		return Duration{Quantity: n, Unit: Days}, true
	case strings.Contains(unit, "week"):
		return Duration{Quantity: n, Unit: Weeks}, true
	case strings.Contains(unit, "month"):
		return Duration{Quantity: n, Unit: Months}, true
	}
	return Duration{}, false
}

// End returns the last active calendar day for a prescription starting at start
func (d Duration) End(start time.Time) time.Time {
	switch d.Unit {
	case Weeks:
		return start.AddDate(0, 0, 7*d.Quantity)
	case Months:
		return start.AddDate(0, d.Quantity, 0)
	}
	return start.AddDate(0, 0, d.Quantity)
}

// IsActive reports whether a medicine prescribed on start with the given
// duration is still owed on date. A missing start or an unreadable duration
// keeps the medicine active.
func IsActive(start time.Time, duration string, date time.Time) bool {
	if start.IsZero() || strings.TrimSpace(duration) == "" {
		return true
	}
	d, ok := ParseDuration(duration)
	if !ok {
		zap.S().Debugw("unreadable medicine duration, treating as active",
			"duration", duration)
		return true
	}
	end := truncateDay(d.End(start.In(date.Location())))
	return !truncateDay(date).After(end)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
