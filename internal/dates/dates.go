// Package dates provides the calendar-day arithmetic the tracker is built
// on. A "day" is identified by its YYYY-MM-DD key and represented as noon
// UTC, which keeps the calendar day stable across timezone boundaries.
package dates

import (
	"fmt"
	"time"
)

// DayFormat is the canonical calendar-day layout.
const DayFormat = "2006-01-02"

// NoonUTC normalizes a time to noon UTC on its calendar day.
func NoonUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// DayKey returns the YYYY-MM-DD key for a time's calendar day.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into its noon-UTC representation.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", s, err)
	}
	return NoonUTC(t), nil
}

// DayCount returns the inclusive number of calendar days in [start, end].
// Returns 0 if end precedes start.
func DayCount(start, end time.Time) int {
	s, e := NoonUTC(start), NoonUTC(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// EnumerateDays returns every calendar day in [start, end] inclusive, each
// at noon UTC, in order. Days are never skipped.
func EnumerateDays(start, end time.Time) []time.Time {
	n := DayCount(start, end)
	days := make([]time.Time, 0, n)
	d := NoonUTC(start)
	for i := 0; i < n; i++ {
		days = append(days, d)
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// Today returns the current calendar day at noon UTC.
func Today() time.Time {
	return NoonUTC(time.Now())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}
