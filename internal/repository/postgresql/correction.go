package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRepository struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) correction.Repository {
	return &correctionRepository{db: db}
}

const correctionColumns = `
	c.id, c.employee_id, c.company_id, c.date, c.attendance_record_id,
	c.requested_clock_in, c.requested_clock_out, c.reason, c.issue_type,
	c.status, c.processed_by, c.processed_at, c.admin_remarks,
	c.original_clock_in, c.original_clock_out,
	c.corrected_clock_in, c.corrected_clock_out,
	c.created_at, c.updated_at
`

func scanCorrection(row pgx.Row, req *correction.Request) error {
	return row.Scan(
		&req.ID, &req.EmployeeID, &req.CompanyID, &req.Date, &req.AttendanceRecordID,
		&req.RequestedClockIn, &req.RequestedClockOut, &req.Reason, &req.IssueType,
		&req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.AdminRemarks,
		&req.OriginalClockIn, &req.OriginalClockOut,
		&req.CorrectedClockIn, &req.CorrectedClockOut,
		&req.CreatedAt, &req.UpdatedAt,
	)
}

// Create implements correction.Repository.
func (c *correctionRepository) Create(ctx context.Context, req correction.Request) (correction.Request, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		INSERT INTO correction_requests (
			id, employee_id, company_id, date, attendance_record_id,
			requested_clock_in, requested_clock_out, reason, issue_type, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.CompanyID, req.Date, req.AttendanceRecordID,
		req.RequestedClockIn, req.RequestedClockOut, req.Reason, req.IssueType, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return correction.Request{}, fmt.Errorf("failed to create correction request: %w", err)
	}

	return req, nil
}

// GetByID implements correction.Repository.
func (c *correctionRepository) GetByID(ctx context.Context, id string) (correction.Request, error) {
	return c.getByID(ctx, id, false)
}

// GetByIDForUpdate implements correction.Repository.
func (c *correctionRepository) GetByIDForUpdate(ctx context.Context, id string) (correction.Request, error) {
	return c.getByID(ctx, id, true)
}

func (c *correctionRepository) getByID(ctx context.Context, id string, forUpdate bool) (correction.Request, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT ` + correctionColumns + `
		FROM correction_requests c
		WHERE c.id = $1
	`
	if forUpdate {
		query += " FOR UPDATE OF c"
	}

	var req correction.Request
	if err := scanCorrection(q.QueryRow(ctx, query, id), &req); err != nil {
		if err == pgx.ErrNoRows {
			return correction.Request{}, correction.ErrCorrectionNotFound
		}
		return correction.Request{}, fmt.Errorf("failed to get correction request: %w", err)
	}

	return req, nil
}

// Update implements correction.Repository.
func (c *correctionRepository) Update(ctx context.Context, req correction.Request) error {
	q := GetQuerier(ctx, c.db)

	query := `
		UPDATE correction_requests SET
			attendance_record_id = $1, status = $2,
			processed_by = $3, processed_at = $4, admin_remarks = $5,
			original_clock_in = $6, original_clock_out = $7,
			corrected_clock_in = $8, corrected_clock_out = $9,
			updated_at = $10
		WHERE id = $11
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		req.AttendanceRecordID, req.Status,
		req.ProcessedBy, req.ProcessedAt, req.AdminRemarks,
		req.OriginalClockIn, req.OriginalClockOut,
		req.CorrectedClockIn, req.CorrectedClockOut,
		time.Now(), req.ID,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return correction.ErrCorrectionNotFound
		}
		return fmt.Errorf("failed to update correction request: %w", err)
	}

	return nil
}

// ListByEmployee implements correction.Repository.
func (c *correctionRepository) ListByEmployee(ctx context.Context, employeeID string, filter correction.Filter) ([]correction.Request, int64, error) {
	return c.list(ctx, "c.employee_id = $1", employeeID, filter)
}

// ListByCompany implements correction.Repository.
func (c *correctionRepository) ListByCompany(ctx context.Context, companyID string, filter correction.Filter) ([]correction.Request, int64, error) {
	return c.list(ctx, "c.company_id = $1", companyID, filter)
}

func (c *correctionRepository) list(ctx context.Context, scope string, scopeArg string, filter correction.Filter) ([]correction.Request, int64, error) {
	q := GetQuerier(ctx, c.db)

	baseWhere := scope
	args := []interface{}{scopeArg}
	argIdx := 2

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND c.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND c.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND c.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM correction_requests c WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+correctionColumns+`,
			e.full_name AS employee_name
		FROM correction_requests c
		LEFT JOIN employees e ON e.id = c.employee_id
		WHERE %s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query correction requests: %w", err)
	}
	defer rows.Close()

	var requests []correction.Request
	for rows.Next() {
		var req correction.Request
		err := rows.Scan(
			&req.ID, &req.EmployeeID, &req.CompanyID, &req.Date, &req.AttendanceRecordID,
			&req.RequestedClockIn, &req.RequestedClockOut, &req.Reason, &req.IssueType,
			&req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.AdminRemarks,
			&req.OriginalClockIn, &req.OriginalClockOut,
			&req.CorrectedClockIn, &req.CorrectedClockOut,
			&req.CreatedAt, &req.UpdatedAt,
			&req.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan correction request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, total, nil
}

// HasOpenForDate implements correction.Repository.
func (c *correctionRepository) HasOpenForDate(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM correction_requests
			WHERE employee_id = $1
			  AND date = $2
			  AND status = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, date, correction.StatusPending).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending correction: %w", err)
	}

	return exists, nil
}
