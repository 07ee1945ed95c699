package timeclock

import (
	"testing"
	"time"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 3, 11, hour, min, sec, 0, time.UTC)
}

func TestLateMinutes(t *testing.T) {
	cases := []struct {
		name       string
		clockIn    time.Time
		shiftStart time.Time
		grace      int
		want       int
	}{
		{"night shift twenty minutes past grace", at(22, 30, 0), at(22, 0, 0), 10, 20},
		{"exactly on shift start", at(9, 0, 0), at(9, 0, 0), 15, 0},
		{"inside grace period", at(9, 10, 0), at(9, 0, 0), 15, 0},
		{"exactly at grace threshold", at(9, 15, 0), at(9, 0, 0), 15, 0},
		{"one minute past grace", at(9, 16, 0), at(9, 0, 0), 15, 1},
		{"sub-minute overrun floors to zero", at(9, 15, 30), at(9, 0, 0), 15, 0},
		{"early arrival", at(7, 45, 0), at(9, 0, 0), 15, 0},
		{"no grace period", at(9, 5, 0), at(9, 0, 0), 0, 5},
	}

	for _, c := range cases {
		got := LateMinutes(c.clockIn, c.shiftStart, c.grace)
		if got != c.want {
			t.Errorf("%s: LateMinutes = %d, want %d", c.name, got, c.want)
		}
		if got < 0 {
			t.Errorf("%s: LateMinutes is negative", c.name)
		}
	}
}

func TestIsLate(t *testing.T) {
	if !IsLate(at(22, 30, 0), at(22, 0, 0), 10) {
		t.Error("IsLate = false for clock-in 20 minutes past grace, want true")
	}
	if IsLate(at(22, 9, 0), at(22, 0, 0), 10) {
		t.Error("IsLate = true for clock-in inside grace, want false")
	}
}

func TestEarlyDepartureMinutes(t *testing.T) {
	cases := []struct {
		name     string
		clockOut time.Time
		shiftEnd time.Time
		want     int
	}{
		{"left ninety minutes early", at(15, 30, 0), at(17, 0, 0), 90},
		{"exactly at shift end", at(17, 0, 0), at(17, 0, 0), 0},
		{"stayed past shift end", at(18, 12, 0), at(17, 0, 0), 0},
		{"sub-minute early floors to zero", at(16, 59, 30), at(17, 0, 0), 0},
	}

	for _, c := range cases {
		got := EarlyDepartureMinutes(c.clockOut, c.shiftEnd)
		if got != c.want {
			t.Errorf("%s: EarlyDepartureMinutes = %d, want %d", c.name, got, c.want)
		}
	}
}
