package attendance

import "errors"

// Attendance domain errors
var (
	// Sequencing errors, rejected synchronously and never retried
	ErrAlreadyActiveSession = errors.New("an active session already exists for today")
	ErrNoActiveSession      = errors.New("no active session for today")
	ErrBreakInProgress      = errors.New("a break is still in progress")
	ErrBreakAlreadyActive   = errors.New("a break is already in progress")
	ErrNoActiveBreak        = errors.New("no open break to end")
	ErrRecordFinalized      = errors.New("attendance record has been finalized")

	// General errors
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
	ErrInvariantViolation = errors.New("attendance record invariant violated")
)
