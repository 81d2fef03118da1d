// Package biztime centralizes billing-period time math. All period keys are
// computed in UTC so every process instance agrees on the current month.
package biztime

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the canonical format of a usage period tag.
const MonthKeyLayout = "2006-01"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// MonthKey returns the period tag for t, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// CurrentMonthKey returns the period tag for the current month.
func CurrentMonthKey() string {
	return MonthKey(NowUTC())
}

// MonthStart returns the first instant of t's month.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonthStart returns the first instant of the month after t. This is both
// the usage reset date and the start of the next billing cycle.
func NextMonthStart(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// ParseMonthKey parses a period tag back into the month's first instant.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(MonthKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}
