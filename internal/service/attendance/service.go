package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	tx      database.TxRunner
	records attendance.Repository
	shifts  schedule.Repository

	// Injectable for tests
	now   func() time.Time
	newID func() string
}

func NewAttendanceService(tx database.TxRunner, records attendance.Repository, shifts schedule.Repository) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		tx:      tx,
		records: records,
		shifts:  shifts,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// timePtrToString safely converts a *time.Time to an RFC3339 string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func claimsFromContext(ctx context.Context) (employeeID, companyID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	companyID, ok = claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	return employeeID, companyID, nil
}

// workingDay resolves the employee's current local working day. The returned
// date is midnight-truncated and carries UTC so it round-trips as a plain
// DATE column.
func (a *AttendanceServiceImpl) workingDay(ctx context.Context, employeeID string) (time.Time, *time.Location, error) {
	timezoneStr, err := a.shifts.GetTimezone(ctx, employeeID)
	if err != nil {
		if errors.Is(err, schedule.ErrTimezoneNotFound) {
			return time.Time{}, nil, schedule.ErrTimezoneNotFound
		}
		return time.Time{}, nil, fmt.Errorf("failed to get timezone by employee ID: %w", err)
	}

	loc, err := time.LoadLocation(timezoneStr)
	if err != nil {
		loc = time.UTC
	}

	nowLocal := a.now().In(loc)
	date := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	return date, loc, nil
}

// StartSession implements attendance.Service.
func (a *AttendanceServiceImpl) StartSession(ctx context.Context, req attendance.StartSessionRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	date, _, err := a.workingDay(ctx, employeeID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	nowUTC := a.now().UTC()

	var result attendance.Record
	err = a.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := a.records.GetByEmployeeAndDateForUpdate(ctx, employeeID, date)
		if err != nil {
			return err
		}

		if rec == nil {
			// First session of the day creates the record.
			newRec := attendance.Record{
				ID:         a.newID(),
				EmployeeID: employeeID,
				CompanyID:  companyID,
				Date:       date,
				Status:     attendance.StatusNotStarted,
			}
			if _, err := newRec.StartSession(a.newID(), req.WorkLocation, nowUTC); err != nil {
				return err
			}
			newRec.Status = LiveStatus(&newRec)

			created, err := a.records.Create(ctx, newRec)
			if err != nil {
				return err
			}
			result = created
			return nil
		}

		if _, err := rec.StartSession(a.newID(), req.WorkLocation, nowUTC); err != nil {
			return err
		}
		rec.Status = LiveStatus(rec)

		if err := a.records.Save(ctx, *rec); err != nil {
			return err
		}
		result = *rec
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return mapRecordToResponse(&result), nil
}

// EndSession implements attendance.Service.
func (a *AttendanceServiceImpl) EndSession(ctx context.Context) (attendance.RecordResponse, error) {
	return a.mutateToday(ctx, func(rec *attendance.Record, now time.Time) error {
		_, err := rec.EndSession(now)
		return err
	})
}

// StartBreak implements attendance.Service.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.RecordResponse, error) {
	return a.mutateToday(ctx, func(rec *attendance.Record, now time.Time) error {
		_, err := rec.StartBreak(a.newID(), now)
		return err
	})
}

// EndBreak implements attendance.Service.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.RecordResponse, error) {
	return a.mutateToday(ctx, func(rec *attendance.Record, now time.Time) error {
		_, err := rec.EndBreak(now)
		return err
	})
}

// mutateToday applies one state transition to today's record under the row
// lock. A missing record means the employee never started a session, which
// every non-start transition rejects.
func (a *AttendanceServiceImpl) mutateToday(ctx context.Context, mutate func(rec *attendance.Record, now time.Time) error) (attendance.RecordResponse, error) {
	employeeID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	date, _, err := a.workingDay(ctx, employeeID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	nowUTC := a.now().UTC()

	var result attendance.Record
	err = a.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := a.records.GetByEmployeeAndDateForUpdate(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if rec == nil {
			return attendance.ErrNoActiveSession
		}

		if err := mutate(rec, nowUTC); err != nil {
			return err
		}
		rec.Status = LiveStatus(rec)

		if err := a.records.Save(ctx, *rec); err != nil {
			return err
		}
		result = *rec
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return mapRecordToResponse(&result), nil
}

// GetTodayStatus implements attendance.Service.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context) (attendance.TodayStatusResponse, error) {
	employeeID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	date, _, err := a.workingDay(ctx, employeeID)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	rec, err := a.records.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	resp := attendance.TodayStatusResponse{
		Date: date.Format("2006-01-02"),
	}

	if rec == nil {
		resp.CanStartSession = true
		resp.Message = "no attendance yet for today"
		return resp, nil
	}

	mapped := mapRecordToResponse(rec)
	resp.HasRecord = true
	resp.Record = &mapped

	if rec.Finalized {
		resp.Message = "attendance for today has been finalized"
		return resp, nil
	}

	active := rec.ActiveSession()
	switch {
	case active == nil:
		resp.CanStartSession = true
		resp.Message = "no session in progress"
	case active.Status == attendance.SessionOnBreak:
		resp.CanEndBreak = true
		resp.Message = "on break"
	default:
		resp.CanEndSession = true
		resp.CanStartBreak = true
		resp.Message = "session in progress"
	}

	return resp, nil
}

// GetMyAttendance implements attendance.Service.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyFilter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	employeeID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.records.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// ListAttendance implements attendance.Service.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.Filter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	_, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.records.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// GetRecord implements attendance.Service.
func (a *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	_, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	rec, err := a.records.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if rec.CompanyID != companyID {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	return mapRecordToResponse(&rec), nil
}

func buildListResponse(records []attendance.Record, total int64, page, limit int) attendance.ListResponse {
	responses := make([]attendance.RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, mapRecordToResponse(&records[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	from := (page-1)*limit + 1
	to := (page-1)*limit + len(records)
	if len(records) == 0 {
		from = 0
	}

	return attendance.ListResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    fmt.Sprintf("%d-%d of %d", from, to, total),
		Records:    responses,
	}
}

func mapRecordToResponse(rec *attendance.Record) attendance.RecordResponse {
	sessions := make([]attendance.SessionResponse, 0, len(rec.Sessions))
	for i := range rec.Sessions {
		s := &rec.Sessions[i]
		breaks := make([]attendance.BreakResponse, 0, len(s.Breaks))
		for j := range s.Breaks {
			b := &s.Breaks[j]
			breaks = append(breaks, attendance.BreakResponse{
				ID:              b.ID,
				StartTime:       b.StartTime.UTC().Format(time.RFC3339),
				EndTime:         timePtrToString(b.EndTime),
				DurationMinutes: b.DurationMins,
			})
		}
		sessions = append(sessions, attendance.SessionResponse{
			ID:            s.ID,
			CheckIn:       s.CheckIn.UTC().Format(time.RFC3339),
			CheckOut:      timePtrToString(s.CheckOut),
			WorkLocation:  s.WorkLocation,
			Status:        s.Status,
			WorkedMinutes: s.WorkedMins,
			Breaks:        breaks,
		})
	}

	return attendance.RecordResponse{
		ID:                rec.ID,
		EmployeeID:        rec.EmployeeID,
		EmployeeName:      rec.EmployeeName,
		Date:              rec.Date.Format("2006-01-02"),
		Status:            rec.Status,
		StatusReason:      rec.StatusReason,
		HalfDayType:       rec.HalfDayType,
		Finalized:         rec.Finalized,
		WorkedMinutes:     rec.TotalWorkedMinutes(),
		LateMinutes:       rec.LateMinutes,
		EarlyLeaveMinutes: rec.EarlyLeaveMinutes,
		ClockIn:           timePtrToString(rec.ClockIn),
		ClockOut:          timePtrToString(rec.ClockOut),
		Sessions:          sessions,
		CreatedAt:         rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
