package schedule

import "errors"

// Schedule domain errors
var (
	ErrShiftPolicyNotFound = errors.New("no shift policy found for employee and date")
	ErrTimezoneNotFound    = errors.New("no timezone resolvable for employee")
)
