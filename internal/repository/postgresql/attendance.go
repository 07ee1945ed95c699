package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const recordColumns = `
	r.id, r.employee_id, r.company_id, r.date,
	r.status, r.status_reason, r.half_day_type, r.finalized,
	r.late_minutes, r.early_leave_minutes, r.worked_minutes,
	r.clock_in, r.clock_out, r.last_corrected_at,
	r.created_at, r.updated_at
`

func scanRecord(row pgx.Row, rec *attendance.Record) error {
	return row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date,
		&rec.Status, &rec.StatusReason, &rec.HalfDayType, &rec.Finalized,
		&rec.LateMinutes, &rec.EarlyLeaveMinutes, &rec.WorkedMinutes,
		&rec.ClockIn, &rec.ClockOut, &rec.LastCorrectedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := rec.Validate(); err != nil {
		return attendance.Record{}, err
	}

	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, company_id, date,
			status, status_reason, half_day_type, finalized,
			late_minutes, early_leave_minutes, worked_minutes,
			clock_in, clock_out, last_corrected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.CompanyID, rec.Date,
		rec.Status, rec.StatusReason, rec.HalfDayType, rec.Finalized,
		rec.LateMinutes, rec.EarlyLeaveMinutes, rec.WorkedMinutes,
		rec.ClockIn, rec.ClockOut, rec.LastCorrectedAt,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	if err := a.insertSessions(ctx, rec.ID, rec.Sessions); err != nil {
		return attendance.Record{}, err
	}

	return rec, nil
}

// GetByID implements attendance.Repository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	return a.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.Repository.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string) (attendance.Record, error) {
	return a.getByID(ctx, id, true)
}

func (a *attendanceRepository) getByID(ctx context.Context, id string, forUpdate bool) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records r
		WHERE r.id = $1
	`
	if forUpdate {
		query += " FOR UPDATE OF r"
	}

	var rec attendance.Record
	if err := scanRecord(q.QueryRow(ctx, query, id), &rec); err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	if err := a.loadSessions(ctx, []*attendance.Record{&rec}); err != nil {
		return attendance.Record{}, err
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, false)
}

// GetByEmployeeAndDateForUpdate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, true)
}

func (a *attendanceRepository) getByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, forUpdate bool) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records r
		WHERE r.employee_id = $1
		  AND r.date = $2
	`
	if forUpdate {
		query += " FOR UPDATE OF r"
	}

	var rec attendance.Record
	if err := scanRecord(q.QueryRow(ctx, query, employeeID, date), &rec); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No record for this working day yet
		}
		return nil, fmt.Errorf("failed to get attendance record by employee and date: %w", err)
	}

	if err := a.loadSessions(ctx, []*attendance.Record{&rec}); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Save implements attendance.Repository. Sessions and breaks are rewritten
// wholesale; callers hold the record row lock so this is race-free.
func (a *attendanceRepository) Save(ctx context.Context, rec attendance.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			status = $1, status_reason = $2, half_day_type = $3, finalized = $4,
			late_minutes = $5, early_leave_minutes = $6, worked_minutes = $7,
			clock_in = $8, clock_out = $9, last_corrected_at = $10,
			updated_at = $11
		WHERE id = $12
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		rec.Status, rec.StatusReason, rec.HalfDayType, rec.Finalized,
		rec.LateMinutes, rec.EarlyLeaveMinutes, rec.WorkedMinutes,
		rec.ClockIn, rec.ClockOut, rec.LastCorrectedAt,
		time.Now(), rec.ID,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.ErrRecordNotFound
		}
		return fmt.Errorf("failed to update attendance record: %w", err)
	}

	// Breaks cascade with their sessions.
	if _, err := q.Exec(ctx, `DELETE FROM attendance_sessions WHERE record_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear attendance sessions: %w", err)
	}

	return a.insertSessions(ctx, rec.ID, rec.Sessions)
}

func (a *attendanceRepository) insertSessions(ctx context.Context, recordID string, sessions []attendance.Session) error {
	q := GetQuerier(ctx, a.db)

	for i := range sessions {
		s := &sessions[i]
		_, err := q.Exec(ctx, `
			INSERT INTO attendance_sessions (
				id, record_id, position, check_in, check_out,
				work_location, status, worked_minutes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, s.ID, recordID, s.Position, s.CheckIn, s.CheckOut, s.WorkLocation, s.Status, s.WorkedMins)
		if err != nil {
			return fmt.Errorf("failed to insert attendance session: %w", err)
		}

		for j := range s.Breaks {
			b := &s.Breaks[j]
			_, err := q.Exec(ctx, `
				INSERT INTO attendance_breaks (
					id, session_id, position, start_time, end_time, duration_minutes
				) VALUES ($1, $2, $3, $4, $5, $6)
			`, b.ID, s.ID, b.Position, b.StartTime, b.EndTime, b.DurationMins)
			if err != nil {
				return fmt.Errorf("failed to insert attendance break: %w", err)
			}
		}
	}

	return nil
}

// loadSessions attaches sessions and breaks to the given records.
func (a *attendanceRepository) loadSessions(ctx context.Context, recs []*attendance.Record) error {
	if len(recs) == 0 {
		return nil
	}

	q := GetQuerier(ctx, a.db)

	byRecord := make(map[string]*attendance.Record, len(recs))
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		byRecord[r.ID] = r
		ids = append(ids, r.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, record_id, position, check_in, check_out,
		       work_location, status, worked_minutes, created_at, updated_at
		FROM attendance_sessions
		WHERE record_id = ANY($1)
		ORDER BY record_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query attendance sessions: %w", err)
	}
	defer rows.Close()

	// Sessions are addressed by (record, index) rather than by pointer:
	// appending to rec.Sessions may reallocate its backing array, which
	// would leave earlier pointers attached to the orphaned copy.
	type sessionRef struct {
		rec *attendance.Record
		idx int
	}
	bySession := make(map[string]sessionRef)
	for rows.Next() {
		var s attendance.Session
		err := rows.Scan(
			&s.ID, &s.RecordID, &s.Position, &s.CheckIn, &s.CheckOut,
			&s.WorkLocation, &s.Status, &s.WorkedMins, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan attendance session: %w", err)
		}
		rec := byRecord[s.RecordID]
		rec.Sessions = append(rec.Sessions, s)
		bySession[s.ID] = sessionRef{rec: rec, idx: len(rec.Sessions) - 1}
	}
	rows.Close()

	if len(bySession) == 0 {
		return nil
	}

	sessionIDs := make([]string, 0, len(bySession))
	for id := range bySession {
		sessionIDs = append(sessionIDs, id)
	}

	breakRows, err := q.Query(ctx, `
		SELECT id, session_id, position, start_time, end_time, duration_minutes, created_at
		FROM attendance_breaks
		WHERE session_id = ANY($1)
		ORDER BY session_id, position
	`, sessionIDs)
	if err != nil {
		return fmt.Errorf("failed to query attendance breaks: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		var b attendance.Break
		err := breakRows.Scan(
			&b.ID, &b.SessionID, &b.Position, &b.StartTime, &b.EndTime, &b.DurationMins, &b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan attendance break: %w", err)
		}
		ref, ok := bySession[b.SessionID]
		if !ok {
			continue
		}
		s := &ref.rec.Sessions[ref.idx]
		s.Breaks = append(s.Breaks, b)
	}

	return nil
}

// ListUnfinalized implements attendance.Repository. Deliberately over-selects
// by date; the sweep filters by resolved shift end.
func (a *attendanceRepository) ListUnfinalized(ctx context.Context, upTo time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records r
		WHERE r.finalized = false
		  AND r.date <= $1
		ORDER BY r.date, r.employee_id
	`, upTo)
	if err != nil {
		return nil, fmt.Errorf("failed to query unfinalized records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	rows.Close()

	ptrs := make([]*attendance.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	if err := a.loadSessions(ctx, ptrs); err != nil {
		return nil, err
	}

	return records, nil
}

// List implements attendance.Repository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.Filter, companyID string) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "r.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND r.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.EmployeeName != nil && *filter.EmployeeName != "" {
		baseWhere += fmt.Sprintf(" AND e.full_name ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.EmployeeName+"%")
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND r.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND r.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND r.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Finalized != nil {
		baseWhere += fmt.Sprintf(" AND r.finalized = $%d", argIdx)
		args = append(args, *filter.Finalized)
		argIdx++
	}

	// Count total (need to join employees for name filter)
	countQuery := `
		SELECT COUNT(*)
		FROM attendance_records r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	// Build ORDER BY
	orderByField := "r.date"
	switch filter.SortBy {
	case "employee_name":
		orderByField = "e.full_name"
	case "status":
		orderByField = "r.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+recordColumns+`,
			e.full_name AS employee_name
		FROM attendance_records r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	return a.queryRecordsWithName(ctx, q, selectQuery, args, total)
}

// ListByEmployee implements attendance.Repository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere := "r.employee_id = $1"
	args := []interface{}{employeeID}
	argIdx := 2

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND r.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND r.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND r.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM attendance_records r WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	orderByField := "r.date"
	if filter.SortBy == "status" {
		orderByField = "r.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+recordColumns+`,
			e.full_name AS employee_name
		FROM attendance_records r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	return a.queryRecordsWithName(ctx, q, selectQuery, args, total)
}

func (a *attendanceRepository) queryRecordsWithName(ctx context.Context, q database.Querier, query string, args []interface{}, total int64) ([]attendance.Record, int64, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date,
			&rec.Status, &rec.StatusReason, &rec.HalfDayType, &rec.Finalized,
			&rec.LateMinutes, &rec.EarlyLeaveMinutes, &rec.WorkedMinutes,
			&rec.ClockIn, &rec.ClockOut, &rec.LastCorrectedAt,
			&rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	rows.Close()

	ptrs := make([]*attendance.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	if err := a.loadSessions(ctx, ptrs); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
