package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type calendarRepository struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.Repository {
	return &calendarRepository{db: db}
}

// GetDayInfo implements calendar.Repository. Two point lookups; callers bound
// the call with a context timeout so a slow day here never stalls the sweep.
func (c *calendarRepository) GetDayInfo(ctx context.Context, employeeID string, date time.Time) (calendar.DayInfo, error) {
	q := GetQuerier(ctx, c.db)

	var info calendar.DayInfo

	holidayQuery := `
		SELECT h.name
		FROM company_holidays h
		JOIN employees e ON e.company_id = h.company_id
		WHERE e.id = $1
		  AND h.date = $2
		LIMIT 1
	`
	var holidayName string
	err := q.QueryRow(ctx, holidayQuery, employeeID, date).Scan(&holidayName)
	if err == nil {
		info.IsHoliday = true
		info.HolidayName = &holidayName
	} else if err != pgx.ErrNoRows {
		return calendar.DayInfo{}, fmt.Errorf("failed to look up holiday: %w", err)
	}

	leaveQuery := `
		SELECT lt.name
		FROM leave_requests lr
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE lr.employee_id = $1
		  AND lr.status = 'approved'
		  AND lr.start_date <= $2
		  AND lr.end_date >= $2
		LIMIT 1
	`
	var leaveName string
	err = q.QueryRow(ctx, leaveQuery, employeeID, date).Scan(&leaveName)
	if err == nil {
		info.IsOnApprovedLeave = true
		info.LeaveTypeName = &leaveName
	} else if err != pgx.ErrNoRows {
		return calendar.DayInfo{}, fmt.Errorf("failed to look up approved leave: %w", err)
	}

	return info, nil
}
