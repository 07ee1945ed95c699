package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records. Implementations
// persist the record together with its sessions and breaks and must call
// Record.Validate before any write. The ForUpdate variants lock the record
// row for the duration of the surrounding transaction; every mutation path
// (session tracking, finalization, correction approval) goes through them
// so all writes to one record are serialized.
type Repository interface {
	// Create inserts a new record and returns it with generated fields set.
	Create(ctx context.Context, rec Record) (Record, error)

	// GetByID retrieves one record with its sessions and breaks.
	GetByID(ctx context.Context, id string) (Record, error)

	// GetByIDForUpdate is GetByID with the record row locked.
	GetByIDForUpdate(ctx context.Context, id string) (Record, error)

	// GetByEmployeeAndDate returns the record for the employee's working
	// day, or nil when none exists yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// GetByEmployeeAndDateForUpdate is GetByEmployeeAndDate with the row locked.
	GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// Save writes the full record state including sessions and breaks.
	Save(ctx context.Context, rec Record) error

	// ListUnfinalized returns every record with finalized=false dated on or
	// before upTo, across all employees and companies. The sweep filters the
	// result by resolved shift end, so this deliberately over-selects.
	ListUnfinalized(ctx context.Context, upTo time.Time) ([]Record, error)

	// List retrieves records with filters and pagination, company-scoped.
	List(ctx context.Context, filter Filter, companyID string) ([]Record, int64, error)

	// ListByEmployee retrieves one employee's records with filters.
	ListByEmployee(ctx context.Context, employeeID string, filter MyFilter) ([]Record, int64, error)
}
