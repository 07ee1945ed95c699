package timeclock

import "time"

// LateMinutes returns how many whole minutes clockIn falls after the grace
// threshold (shiftStart + graceMinutes). Never negative. The result is
// floored to whole minutes, so a clock-in less than sixty seconds past the
// threshold still counts as zero.
func LateMinutes(clockInLocal, shiftStart time.Time, graceMinutes int) int {
	threshold := shiftStart.Add(time.Duration(graceMinutes) * time.Minute)
	diff := clockInLocal.Sub(threshold)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}

// IsLate reports whether clockIn lands beyond the grace threshold by at
// least one whole minute.
func IsLate(clockInLocal, shiftStart time.Time, graceMinutes int) bool {
	return LateMinutes(clockInLocal, shiftStart, graceMinutes) > 0
}

// EarlyDepartureMinutes returns how many whole minutes clockOut falls
// before shiftEnd. There is no grace on departures. Never negative.
func EarlyDepartureMinutes(clockOutLocal, shiftEnd time.Time) int {
	diff := shiftEnd.Sub(clockOutLocal)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}
