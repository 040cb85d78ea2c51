package models

import (
	"fmt"
	"strings"
	"time"
)

// TradingDaysPerYear is the annualization factor for daily data
const TradingDaysPerYear = 252

// DateLayout is the wire format of bar dates
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses a bar date in any of the accepted layouts and
// truncates it to a UTC calendar day
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDates renders dates in DateLayout
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}
