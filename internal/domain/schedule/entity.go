package schedule

import "time"

// ShiftPolicy is the expected working window for one employee on one day.
// It is administered elsewhere; this service only reads it. ShiftStart and
// ShiftEnd carry a time of day — the date part is ignored and re-anchored
// onto the working day being evaluated.
type ShiftPolicy struct {
	ID                 string
	Name               string
	ShiftStart         time.Time
	ShiftEnd           time.Time
	IsNextDayCheckout  bool // overnight shifts check out on the following day
	GracePeriodMinutes int
	Timezone           string
}

// Location resolves the policy's IANA timezone, falling back to UTC when
// the name cannot be loaded.
func (p ShiftPolicy) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BoundsOn anchors the shift window onto the given working day in loc.
func (p ShiftPolicy) BoundsOn(date time.Time, loc *time.Location) (start, end time.Time) {
	start = time.Date(
		date.Year(), date.Month(), date.Day(),
		p.ShiftStart.Hour(), p.ShiftStart.Minute(), p.ShiftStart.Second(), 0,
		loc,
	)
	end = time.Date(
		date.Year(), date.Month(), date.Day(),
		p.ShiftEnd.Hour(), p.ShiftEnd.Minute(), p.ShiftEnd.Second(), 0,
		loc,
	)
	if p.IsNextDayCheckout {
		end = end.Add(24 * time.Hour)
	}
	return start, end
}

// ScheduledMinutes is the length of the shift window in minutes.
func (p ShiftPolicy) ScheduledMinutes() int {
	anchor := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	start, end := p.BoundsOn(anchor, time.UTC)
	return int(end.Sub(start) / time.Minute)
}
