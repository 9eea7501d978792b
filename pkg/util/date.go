package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// Business hours are Monday-Friday, 09:00-17:00 in the clock's location.
const (
	BusinessOpenHour  = 9
	BusinessCloseHour = 17
)

// InBusinessHours reports whether t falls inside the business window.
func InBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= BusinessOpenHour && h < BusinessCloseHour
}

// NextBusinessWindow returns t unchanged when already in business hours,
// otherwise the next business-day opening time.
func NextBusinessWindow(t time.Time) time.Time {
	if InBusinessHours(t) {
		return t
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), BusinessOpenHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	for {
		switch next.Weekday() {
		case time.Saturday, time.Sunday:
			next = next.AddDate(0, 0, 1)
		default:
			return next
		}
	}
}
