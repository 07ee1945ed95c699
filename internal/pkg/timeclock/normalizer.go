// Package timeclock holds the pure time policy functions the attendance
// core compares clock events against: wall-clock normalization and the
// lateness / early-departure evaluators. Nothing here does I/O.
package timeclock

import "time"

// Thresholds for the double-conversion heuristic in ResolveLocal. Derived
// from observed bug reports, not from a principled rule; see ResolveLocal.
const (
	minSuspectOffset = 5 * time.Hour
	suspectHourFrom  = 8
	suspectHourTo    = 18
)

// ResolveLocal resolves a raw clock timestamp into the wall-clock time that
// shift policies should compare against, in loc.
//
// Some upstream clients serialize a browser-local time with a UTC tag
// without converting it, so a 09:15 Jakarta clock-in arrives as
// 09:15:00Z. For a UTC-tagged value, if the target zone sits at least
// five hours away from UTC and the claimed UTC hour falls inside normal
// office hours [8,18], the calendar components are taken as already-local
// and the tag is stripped. Every other input converts through its stated
// offset.
//
// This is a heuristic: a genuine early-morning or late-evening UTC
// submission near the boundary can be misclassified. It is kept as an
// isolated policy function so it can be swapped or reverted without
// touching the state machine.
func ResolveLocal(raw time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if !isUTCTagged(raw) {
		return raw.In(loc)
	}

	_, offsetSec := raw.In(loc).Zone()
	offset := time.Duration(offsetSec) * time.Second
	if offset < 0 {
		offset = -offset
	}

	utcHour := raw.UTC().Hour()
	if offset >= minSuspectOffset && utcHour >= suspectHourFrom && utcHour <= suspectHourTo {
		u := raw.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), loc)
	}

	return raw.In(loc)
}

func isUTCTagged(t time.Time) bool {
	_, offset := t.Zone()
	return offset == 0
}
