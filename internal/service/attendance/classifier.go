package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
)

// LiveStatus derives the live status from the record's session state. It is
// recomputed on every mutation and never stored ahead of the state it
// reflects.
func LiveStatus(rec *attendance.Record) string {
	if len(rec.Sessions) == 0 {
		return attendance.StatusNotStarted
	}
	if s := rec.ActiveSession(); s != nil {
		if s.Status == attendance.SessionOnBreak {
			return attendance.StatusOnBreak
		}
		return attendance.StatusInProgress
	}
	return attendance.StatusCompleted
}

// Verdict is the outcome of classifying a record against its shift policy.
type Verdict struct {
	Status       string
	StatusReason *string
	HalfDayType  *string
}

// ClassifyFinal assigns the finalization verdict for one record.
//
// A pending correction trumps everything: the day stays in
// pending_correction (and unfinalized) until the request reaches a terminal
// state. Otherwise the worked total is measured against the scheduled shift
// minutes: at least three quarters is present, at least three eighths is
// half_day, anything less is absent — unless the calendar says the employee
// was on approved leave or the day was a holiday, which replace absent.
func ClassifyFinal(rec *attendance.Record, policy *schedule.ShiftPolicy, day calendar.DayInfo, hasOpenCorrection bool, loc *time.Location) Verdict {
	if hasOpenCorrection {
		reason := "correction request pending review"
		return Verdict{Status: attendance.StatusPendingCorrection, StatusReason: &reason}
	}

	worked := rec.TotalWorkedMinutes()
	scheduled := policy.ScheduledMinutes()

	// worked/scheduled >= 3/4, in integer arithmetic
	if scheduled > 0 && worked*4 >= scheduled*3 {
		return Verdict{Status: attendance.StatusPresent}
	}

	// worked/scheduled >= 3/8
	if scheduled > 0 && worked*8 >= scheduled*3 {
		reason := fmt.Sprintf("worked %d of %d scheduled minutes", worked, scheduled)
		half := halfDayType(rec, policy, loc)
		return Verdict{Status: attendance.StatusHalfDay, StatusReason: &reason, HalfDayType: &half}
	}

	if day.IsOnApprovedLeave {
		reason := "approved leave"
		if day.LeaveTypeName != nil {
			reason = "approved leave: " + *day.LeaveTypeName
		}
		return Verdict{Status: attendance.StatusLeave, StatusReason: &reason}
	}
	if day.IsHoliday {
		reason := "holiday"
		if day.HolidayName != nil {
			reason = "holiday: " + *day.HolidayName
		}
		return Verdict{Status: attendance.StatusHoliday, StatusReason: &reason}
	}

	reason := fmt.Sprintf("worked %d of %d scheduled minutes", worked, scheduled)
	return Verdict{Status: attendance.StatusAbsent, StatusReason: &reason}
}

// halfDayType places the worked interval's midpoint against the shift
// midpoint: mornings are first_half, afternoons second_half.
func halfDayType(rec *attendance.Record, policy *schedule.ShiftPolicy, loc *time.Location) string {
	first := rec.FirstCheckIn()
	last := rec.LastCheckOut()
	if first == nil || last == nil {
		return attendance.HalfDayFullDay
	}

	shiftStart, shiftEnd := policy.BoundsOn(rec.Date, loc)
	shiftMid := shiftStart.Add(shiftEnd.Sub(shiftStart) / 2)

	workedMid := first.Add(last.Sub(*first) / 2).In(loc)
	if workedMid.Before(shiftMid) {
		return attendance.HalfDayFirstHalf
	}
	return attendance.HalfDaySecondHalf
}
