package employee

import "context"

// Repository is the minimal employee access the attendance core needs: the
// absence pre-pass enumerates active employees, everything else is keyed by
// IDs carried in tokens and records.
type Repository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
