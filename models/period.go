package models

import "strings"

// Period is one of the three fixed daily dose windows
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

// Periods lists the daily windows in the order they occur
var Periods = []Period{Morning, Afternoon, Evening}

// ParsePeriod accepts a period name in any letter case
func ParsePeriod(s string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p.Index() < 0 {
		return "", false
	}
	return p, true
}

// Index returns the position of the period within the day, or -1 if unknown
func (p Period) Index() int {
	for i, v := range Periods {
		if v == p {
			return i
		}
	}
	return -1
}

func (p Period) String() string {
	return string(p)
}
