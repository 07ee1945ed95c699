package attendance

import (
	"context"
)

// Service defines the session-tracking business logic. All four mutating
// operations are scoped to the calling employee's current local working day
// and run inside a single transaction holding the record row lock.
type Service interface {
	// StartSession opens a new work session for today.
	StartSession(ctx context.Context, req StartSessionRequest) (RecordResponse, error)

	// EndSession closes today's active session.
	EndSession(ctx context.Context) (RecordResponse, error)

	// StartBreak opens a break on today's active session.
	StartBreak(ctx context.Context) (RecordResponse, error)

	// EndBreak closes the open break.
	EndBreak(ctx context.Context) (RecordResponse, error)

	// GetTodayStatus reports what the caller can do right now.
	GetTodayStatus(ctx context.Context) (TodayStatusResponse, error)

	// GetMyAttendance retrieves records for the authenticated employee.
	GetMyAttendance(ctx context.Context, filter MyFilter) (ListResponse, error)

	// ListAttendance retrieves records with filters (admin/manager).
	ListAttendance(ctx context.Context, filter Filter) (ListResponse, error)

	// GetRecord retrieves a single record by ID, company-scoped.
	GetRecord(ctx context.Context, id string) (RecordResponse, error)
}
