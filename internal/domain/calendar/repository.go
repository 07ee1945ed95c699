package calendar

import (
	"context"
	"time"
)

// Repository looks up approved leave and calendar holidays for an employee
// day. Callers bound the lookup with a context timeout; on timeout the
// record is skipped and retried next sweep rather than blocking the batch.
type Repository interface {
	GetDayInfo(ctx context.Context, employeeID string, date time.Time) (DayInfo, error)
}
