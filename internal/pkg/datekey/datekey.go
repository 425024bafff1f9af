// Package datekey handles the day_month_year slot date format used across
// the booking policy and the expiry sweeper. Keys carry no zero padding
// ("5_6_2025"), month is 1-12, day must exist in that month.
package datekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse converts a day_month_year key to a time.Time at local midnight.
func Parse(key string) (time.Time, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date key %q: want day_month_year", key)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in date key %q", key)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month in date key %q", key)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in date key %q", key)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month out of range in date key %q", key)
	}
	if year < 1 {
		return time.Time{}, fmt.Errorf("year out of range in date key %q", key)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes overflow (31_2_2025 becomes March); reject that.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("day out of range in date key %q", key)
	}

	return t, nil
}

// Format renders a time as a day_month_year key.
func Format(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// StartOfDay truncates a time to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
