package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftPolicyRepository struct {
	db *database.DB
}

func NewShiftPolicyRepository(db *database.DB) schedule.Repository {
	return &shiftPolicyRepository{db: db}
}

// GetByEmployeeAndDate implements schedule.Repository. An employee-level
// assignment overrides the department default; the valid_from/valid_until
// window selects which assignment covers the working day.
func (s *shiftPolicyRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*schedule.ShiftPolicy, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT p.id, p.name, p.shift_start, p.shift_end,
		       p.is_next_day_checkout, p.grace_period_minutes, p.timezone
		FROM shift_assignments a
		JOIN shift_policies p ON p.id = a.shift_policy_id
		WHERE a.employee_id = $1
		  AND a.valid_from <= $2
		  AND (a.valid_until IS NULL OR a.valid_until >= $2)
		ORDER BY a.valid_from DESC
		LIMIT 1
	`

	var policy schedule.ShiftPolicy
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&policy.ID, &policy.Name, &policy.ShiftStart, &policy.ShiftEnd,
		&policy.IsNextDayCheckout, &policy.GracePeriodMinutes, &policy.Timezone,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, schedule.ErrShiftPolicyNotFound
		}
		return nil, fmt.Errorf("failed to get shift policy: %w", err)
	}

	return &policy, nil
}

// GetTimezone implements schedule.Repository. Falls back to the employee's
// current assignment; an employee with no assignment at all has no resolvable
// working day, which the caller surfaces as ErrTimezoneNotFound.
func (s *shiftPolicyRepository) GetTimezone(ctx context.Context, employeeID string) (string, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT p.timezone
		FROM shift_assignments a
		JOIN shift_policies p ON p.id = a.shift_policy_id
		WHERE a.employee_id = $1
		ORDER BY a.valid_from DESC
		LIMIT 1
	`

	var tz string
	if err := q.QueryRow(ctx, query, employeeID).Scan(&tz); err != nil {
		if err == pgx.ErrNoRows {
			return "", schedule.ErrTimezoneNotFound
		}
		return "", fmt.Errorf("failed to get employee timezone: %w", err)
	}

	return tz, nil
}
