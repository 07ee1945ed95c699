package correction

import (
	"context"
	"time"
)

// Repository defines data access for correction requests.
type Repository interface {
	Create(ctx context.Context, req Request) (Request, error)

	GetByID(ctx context.Context, id string) (Request, error)

	// GetByIDForUpdate locks the request row for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)

	Update(ctx context.Context, req Request) error

	ListByEmployee(ctx context.Context, employeeID string, filter Filter) ([]Request, int64, error)

	ListByCompany(ctx context.Context, companyID string, filter Filter) ([]Request, int64, error)

	// HasOpenForDate reports whether a pending request exists against the
	// employee's working day. Finalization consults this to assign
	// pending_correction instead of a numeric verdict.
	HasOpenForDate(ctx context.Context, employeeID string, date time.Time) (bool, error)
}
