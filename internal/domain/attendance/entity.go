package attendance

import (
	"fmt"
	"time"
)

// Live statuses describe a working day still in motion. Final statuses are
// written by the finalization sweep (or a correction re-run) and never
// change afterwards. The string values are persisted; renaming any of them
// requires a data migration that rewrites historical rows.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusOnBreak    = "on_break"
	StatusCompleted  = "completed"

	StatusPresent           = "present"
	StatusHalfDay           = "half_day"
	StatusAbsent            = "absent"
	StatusLeave             = "leave"
	StatusHoliday           = "holiday"
	StatusPendingCorrection = "pending_correction"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionOnBreak   = "on_break"
	SessionCompleted = "completed"
)

// Half-day type values.
const (
	HalfDayFirstHalf  = "first_half"
	HalfDaySecondHalf = "second_half"
	HalfDayFullDay    = "full_day"
)

var finalStatuses = []string{
	StatusPresent, StatusHalfDay, StatusAbsent,
	StatusLeave, StatusHoliday, StatusPendingCorrection,
}

// IsFinalStatus reports whether s is a finalization verdict.
func IsFinalStatus(s string) bool {
	for _, v := range finalStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Record is the attendance record for one (employee, working day). It owns
// its sessions and their breaks as ordered value types; all mutation goes
// through the methods below so the single-active-session and single-open-
// break invariants hold on every write.
type Record struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       time.Time // local working day, midnight-truncated

	Sessions []Session

	Status       string
	StatusReason *string
	HalfDayType  *string
	Finalized    bool

	LateMinutes       *int
	EarlyLeaveMinutes *int
	WorkedMinutes     *int

	// Legacy single-pair clock fields, still read for rows that predate
	// the session model.
	ClockIn  *time.Time
	ClockOut *time.Time

	LastCorrectedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO
	EmployeeName *string
}

// Session is one continuous stretch of work inside a Record.
type Session struct {
	ID           string
	RecordID     string
	Position     int
	CheckIn      time.Time
	CheckOut     *time.Time
	WorkLocation string
	Status       string
	Breaks       []Break
	WorkedMins   *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Break is a pause nested inside a Session.
type Break struct {
	ID           string
	SessionID    string
	Position     int
	StartTime    time.Time
	EndTime      *time.Time
	DurationMins *int
	CreatedAt    time.Time
}

// ActiveSession returns the session currently active or on break, or nil.
// The Validate invariant guarantees there is at most one.
func (r *Record) ActiveSession() *Session {
	for i := range r.Sessions {
		if r.Sessions[i].Status == SessionActive || r.Sessions[i].Status == SessionOnBreak {
			return &r.Sessions[i]
		}
	}
	return nil
}

// StartSession appends a new active session. Fails if the record is
// finalized or another session is still open.
func (r *Record) StartSession(id, workLocation string, now time.Time) (*Session, error) {
	if r.Finalized {
		return nil, ErrRecordFinalized
	}
	if r.ActiveSession() != nil {
		return nil, ErrAlreadyActiveSession
	}
	r.Sessions = append(r.Sessions, Session{
		ID:           id,
		RecordID:     r.ID,
		Position:     len(r.Sessions),
		CheckIn:      now,
		WorkLocation: workLocation,
		Status:       SessionActive,
	})
	return &r.Sessions[len(r.Sessions)-1], nil
}

// EndSession closes the active session and computes its worked minutes.
// Fails if no session is active or a break is still open.
func (r *Record) EndSession(now time.Time) (*Session, error) {
	if r.Finalized {
		return nil, ErrRecordFinalized
	}
	s := r.ActiveSession()
	if s == nil {
		return nil, ErrNoActiveSession
	}
	if s.OpenBreak() != nil {
		return nil, ErrBreakInProgress
	}
	s.CheckOut = &now
	s.Status = SessionCompleted
	worked := s.ComputeWorkedMinutes()
	s.WorkedMins = &worked
	return s, nil
}

// StartBreak opens a break on the active session, moving it to on_break.
func (r *Record) StartBreak(id string, now time.Time) (*Break, error) {
	if r.Finalized {
		return nil, ErrRecordFinalized
	}
	s := r.ActiveSession()
	if s == nil {
		return nil, ErrNoActiveSession
	}
	if s.Status == SessionOnBreak || s.OpenBreak() != nil {
		return nil, ErrBreakAlreadyActive
	}
	s.Breaks = append(s.Breaks, Break{
		ID:        id,
		SessionID: s.ID,
		Position:  len(s.Breaks),
		StartTime: now,
	})
	s.Status = SessionOnBreak
	return &s.Breaks[len(s.Breaks)-1], nil
}

// EndBreak closes the open break and returns the session to active.
func (r *Record) EndBreak(now time.Time) (*Break, error) {
	if r.Finalized {
		return nil, ErrRecordFinalized
	}
	s := r.ActiveSession()
	if s == nil {
		return nil, ErrNoActiveBreak
	}
	b := s.OpenBreak()
	if b == nil {
		return nil, ErrNoActiveBreak
	}
	b.EndTime = &now
	dur := int(now.Sub(b.StartTime) / time.Minute)
	if dur < 0 {
		dur = 0
	}
	b.DurationMins = &dur
	s.Status = SessionActive
	return b, nil
}

// CloseDanglingAt closes any open break and open session at the given
// time, used by finalization to settle days where the employee never
// clocked out. A session that opened after cutoff is closed at its own
// check-in so its worked minutes stay zero rather than going negative.
func (r *Record) CloseDanglingAt(cutoff time.Time) {
	s := r.ActiveSession()
	if s == nil {
		return
	}
	at := cutoff
	if s.CheckIn.After(cutoff) {
		at = s.CheckIn
	}
	if b := s.OpenBreak(); b != nil {
		end := at
		if b.StartTime.After(at) {
			end = b.StartTime
		}
		b.EndTime = &end
		dur := int(end.Sub(b.StartTime) / time.Minute)
		b.DurationMins = &dur
	}
	s.CheckOut = &at
	s.Status = SessionCompleted
	worked := s.ComputeWorkedMinutes()
	s.WorkedMins = &worked
}

// TotalWorkedMinutes sums worked minutes over all closed sessions. Rows
// that predate the session model fall back to the legacy clock pair.
func (r *Record) TotalWorkedMinutes() int {
	if len(r.Sessions) == 0 {
		if r.ClockIn != nil && r.ClockOut != nil {
			m := int(r.ClockOut.Sub(*r.ClockIn) / time.Minute)
			if m > 0 {
				return m
			}
		}
		return 0
	}
	total := 0
	for i := range r.Sessions {
		total += r.Sessions[i].ComputeWorkedMinutes()
	}
	return total
}

// FirstCheckIn returns the earliest session check-in, or the legacy clock-in.
func (r *Record) FirstCheckIn() *time.Time {
	if len(r.Sessions) == 0 {
		return r.ClockIn
	}
	t := r.Sessions[0].CheckIn
	for i := range r.Sessions {
		if r.Sessions[i].CheckIn.Before(t) {
			t = r.Sessions[i].CheckIn
		}
	}
	return &t
}

// LastCheckOut returns the latest session check-out, or the legacy
// clock-out. Nil while a session is still open.
func (r *Record) LastCheckOut() *time.Time {
	if len(r.Sessions) == 0 {
		return r.ClockOut
	}
	var t *time.Time
	for i := range r.Sessions {
		out := r.Sessions[i].CheckOut
		if out == nil {
			continue
		}
		if t == nil || out.After(*t) {
			t = out
		}
	}
	return t
}

// Validate checks the structural invariants before a write. The
// repositories call it so a corrupt in-memory record can never reach
// storage.
func (r *Record) Validate() error {
	open := 0
	for i := range r.Sessions {
		s := &r.Sessions[i]
		switch s.Status {
		case SessionActive, SessionOnBreak:
			open++
		case SessionCompleted:
			if s.CheckOut == nil {
				return fmt.Errorf("session %s completed without check-out: %w", s.ID, ErrInvariantViolation)
			}
		default:
			return fmt.Errorf("session %s has unknown status %q: %w", s.ID, s.Status, ErrInvariantViolation)
		}
		if err := s.validate(); err != nil {
			return err
		}
	}
	if open > 1 {
		return fmt.Errorf("%d open sessions on %s: %w", open, r.Date.Format("2006-01-02"), ErrInvariantViolation)
	}
	if r.Finalized && !IsFinalStatus(r.Status) {
		return fmt.Errorf("finalized record carries live status %q: %w", r.Status, ErrInvariantViolation)
	}
	return nil
}

func (s *Session) validate() error {
	openBreaks := 0
	for i := range s.Breaks {
		if s.Breaks[i].EndTime == nil {
			openBreaks++
		}
	}
	if openBreaks > 1 {
		return fmt.Errorf("session %s has %d open breaks: %w", s.ID, openBreaks, ErrInvariantViolation)
	}
	if openBreaks == 1 && s.Status == SessionCompleted {
		return fmt.Errorf("session %s completed with an open break: %w", s.ID, ErrInvariantViolation)
	}
	if s.CheckOut != nil {
		span := int(s.CheckOut.Sub(s.CheckIn) / time.Minute)
		if s.TotalBreakMinutes() > span {
			return fmt.Errorf("session %s break total exceeds session span: %w", s.ID, ErrInvariantViolation)
		}
	}
	return nil
}

// OpenBreak returns the break without an end time, or nil.
func (s *Session) OpenBreak() *Break {
	for i := range s.Breaks {
		if s.Breaks[i].EndTime == nil {
			return &s.Breaks[i]
		}
	}
	return nil
}

// TotalBreakMinutes sums the duration of all closed breaks.
func (s *Session) TotalBreakMinutes() int {
	total := 0
	for i := range s.Breaks {
		b := &s.Breaks[i]
		if b.EndTime == nil {
			continue
		}
		total += int(b.EndTime.Sub(b.StartTime) / time.Minute)
	}
	return total
}

// ComputeWorkedMinutes is the session span minus its break total. Open
// sessions contribute nothing until they are closed.
func (s *Session) ComputeWorkedMinutes() int {
	if s.CheckOut == nil {
		return 0
	}
	worked := int(s.CheckOut.Sub(s.CheckIn)/time.Minute) - s.TotalBreakMinutes()
	if worked < 0 {
		worked = 0
	}
	return worked
}
