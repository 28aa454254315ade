package countdown

import (
	"fmt"
	"time"
)

// DefaultTarget is the programme launch, in the organiser's local time.
const DefaultTarget = "2025-08-15T00:00:00"

// targetLayout is the local wall-clock format used for the target.
const targetLayout = "2006-01-02T15:04:05"

// Parts is the remaining time split into display units.
type Parts struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// IsZero reports whether the countdown has finished.
func (p Parts) IsZero() bool {
	return p == Parts{}
}

// Remaining splits target-now into days, hours, minutes and seconds.
// Each unit is floored; the remainder carries into the next smaller unit.
// PRE: none
// POST: All parts are zero when now is at or after target
func Remaining(target, now time.Time) Parts {
	diff := target.Sub(now).Milliseconds()
	if diff <= 0 {
		return Parts{}
	}
	const (
		msSecond = int64(1000)
		msMinute = 60 * msSecond
		msHour   = 60 * msMinute
		msDay    = 24 * msHour
	)
	return Parts{
		Days:    diff / msDay,
		Hours:   diff % msDay / msHour,
		Minutes: diff % msHour / msMinute,
		Seconds: diff % msMinute / msSecond,
	}
}

// ParseTarget reads a wall-clock timestamp ("2006-01-02T15:04:05") in loc.
// An RFC 3339 value with an explicit offset is accepted as well.
func ParseTarget(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(targetLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse countdown target %q: %w", value, err)
	}
	return t, nil
}
