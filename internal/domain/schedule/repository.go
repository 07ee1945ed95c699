package schedule

import (
	"context"
	"time"
)

// Repository resolves shift policies. Administration of schedules lives in
// a separate service; finalization must never guess a shift, so a missing
// policy surfaces as ErrShiftPolicyNotFound rather than a default.
type Repository interface {
	// GetByEmployeeAndDate resolves the policy assigned to the employee for
	// the given working day (employee-level assignment wins over department).
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*ShiftPolicy, error)

	// GetTimezone resolves the employee's working timezone, used to derive
	// the current local working day for live session tracking.
	GetTimezone(ctx context.Context, employeeID string) (string, error)
}
