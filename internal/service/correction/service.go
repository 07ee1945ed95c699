package correction

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// RecordFinalizer re-runs finalization for one record. Satisfied by the
// finalizer service; approval invokes it synchronously inside its own
// transaction so the new verdict lands atomically with the correction.
type RecordFinalizer interface {
	FinalizeRecord(ctx context.Context, recordID string) error
}

type CorrectionServiceImpl struct {
	tx          database.TxRunner
	corrections correction.Repository
	records     attendance.Repository
	shifts      schedule.Repository
	finalizer   RecordFinalizer

	// Injectable for tests
	now   func() time.Time
	newID func() string
}

func NewCorrectionService(
	tx database.TxRunner,
	corrections correction.Repository,
	records attendance.Repository,
	shifts schedule.Repository,
	finalizer RecordFinalizer,
) *CorrectionServiceImpl {
	return &CorrectionServiceImpl{
		tx:          tx,
		corrections: corrections,
		records:     records,
		shifts:      shifts,
		finalizer:   finalizer,
		now:         time.Now,
		newID:       uuid.NewString,
	}
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

// parseClockValue turns a submitted clock value into a UTC instant. A bare
// HH:MM:SS is anchored onto the working day in the employee's timezone.
func parseClockValue(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("15:04:05", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable clock value %q", raw)
	}
	anchored := time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, loc)
	return anchored.UTC(), nil
}

// Submit implements correction.Service. Submission never mutates the
// attendance record; the sweep or an approval picks the request up later.
func (c *CorrectionServiceImpl) Submit(ctx context.Context, req correction.SubmitRequest) (correction.Response, error) {
	if err := req.Validate(); err != nil {
		return correction.Response{}, err
	}

	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return correction.Response{}, fmt.Errorf("invalid date: %w", err)
	}

	hasOpen, err := c.corrections.HasOpenForDate(ctx, employeeID, date)
	if err != nil {
		return correction.Response{}, err
	}
	if hasOpen {
		return correction.Response{}, correction.ErrOpenCorrectionExists
	}

	timezoneStr, err := c.shifts.GetTimezone(ctx, employeeID)
	if err != nil {
		return correction.Response{}, err
	}
	loc, err := time.LoadLocation(timezoneStr)
	if err != nil {
		loc = time.UTC
	}

	request := correction.Request{
		ID:         c.newID(),
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Reason:     req.Reason,
		IssueType:  strings.ToLower(req.IssueType),
		Status:     correction.StatusPending,
	}

	if req.RequestedClockIn != nil {
		t, err := parseClockValue(*req.RequestedClockIn, date, loc)
		if err != nil {
			return correction.Response{}, err
		}
		request.RequestedClockIn = &t
	}
	if req.RequestedClockOut != nil {
		t, err := parseClockValue(*req.RequestedClockOut, date, loc)
		if err != nil {
			return correction.Response{}, err
		}
		request.RequestedClockOut = &t
	}

	if rec, err := c.records.GetByEmployeeAndDate(ctx, employeeID, date); err == nil && rec != nil {
		request.AttendanceRecordID = &rec.ID
	}

	created, err := c.corrections.Create(ctx, request)
	if err != nil {
		return correction.Response{}, err
	}

	return mapRequestToResponse(&created), nil
}

// Approve implements correction.Service. The whole approval — audit capture,
// applying the corrected times, re-finalization, terminal state — commits or
// rolls back as one transaction.
func (c *CorrectionServiceImpl) Approve(ctx context.Context, req correction.DecideRequest) (correction.Response, error) {
	approverID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}

	now := c.now().UTC()

	var result correction.Request
	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		creq, err := c.corrections.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if creq.CompanyID != companyID {
			return correction.ErrCorrectionNotFound
		}
		if creq.Status != correction.StatusPending {
			return correction.ErrCorrectionAlreadyProcessed
		}

		rec, err := c.records.GetByEmployeeAndDateForUpdate(ctx, creq.EmployeeID, creq.Date)
		if err != nil {
			return err
		}

		// A record independently corrected after this request was filed is
		// describing a day the submitter never saw.
		if rec != nil && rec.LastCorrectedAt != nil && rec.LastCorrectedAt.After(creq.CreatedAt) {
			return correction.ErrStaleRecordConflict
		}

		if rec == nil {
			created, err := c.createRecordFromRequest(ctx, &creq)
			if err != nil {
				return err
			}
			rec = &created
		} else {
			creq.OriginalClockIn = rec.FirstCheckIn()
			creq.OriginalClockOut = rec.LastCheckOut()
			c.applyCorrectedTimes(rec, creq.RequestedClockIn, creq.RequestedClockOut)
		}

		creq.AttendanceRecordID = &rec.ID
		creq.CorrectedClockIn = creq.RequestedClockIn
		creq.CorrectedClockOut = creq.RequestedClockOut
		creq.Status = correction.StatusApproved
		creq.ProcessedBy = &approverID
		creq.ProcessedAt = &now
		creq.AdminRemarks = req.Remarks

		// Reopen the record so the re-run can write a fresh verdict.
		rec.Finalized = false
		rec.Status = attendance.StatusCompleted
		rec.StatusReason = nil
		rec.HalfDayType = nil
		rec.LastCorrectedAt = &now
		if err := c.records.Save(ctx, *rec); err != nil {
			return err
		}

		if err := c.corrections.Update(ctx, creq); err != nil {
			return err
		}

		if err := c.finalizer.FinalizeRecord(ctx, rec.ID); err != nil {
			return fmt.Errorf("re-finalization failed: %w", err)
		}

		creq.Status = correction.StatusCorrected
		if err := c.corrections.Update(ctx, creq); err != nil {
			return err
		}

		result = creq
		return nil
	})
	if err != nil {
		return correction.Response{}, err
	}

	return mapRequestToResponse(&result), nil
}

// createRecordFromRequest builds the record for a day that had none, e.g. an
// absence verdict produced by the pre-pass being contested before the record
// existed at all.
func (c *CorrectionServiceImpl) createRecordFromRequest(ctx context.Context, creq *correction.Request) (attendance.Record, error) {
	rec := attendance.Record{
		ID:         c.newID(),
		EmployeeID: creq.EmployeeID,
		CompanyID:  creq.CompanyID,
		Date:       creq.Date,
		Status:     attendance.StatusNotStarted,
	}

	if creq.RequestedClockIn != nil {
		if _, err := rec.StartSession(c.newID(), "office", *creq.RequestedClockIn); err != nil {
			return attendance.Record{}, err
		}
		rec.Status = attendance.StatusInProgress
		if creq.RequestedClockOut != nil {
			if _, err := rec.EndSession(*creq.RequestedClockOut); err != nil {
				return attendance.Record{}, err
			}
			rec.Status = attendance.StatusCompleted
		}
	} else {
		// Clock-out only: keep the legacy pair, finalization handles it.
		rec.ClockOut = creq.RequestedClockOut
	}

	return c.records.Create(ctx, rec)
}

// applyCorrectedTimes rewrites the record's clock boundaries in place: the
// corrected clock-in lands on the earliest session, the corrected clock-out
// on the latest. A sessionless record gets a synthetic session when a
// clock-in is supplied, so the corrected instants are never re-read through
// the legacy clock-pair heuristic.
func (c *CorrectionServiceImpl) applyCorrectedTimes(rec *attendance.Record, clockIn, clockOut *time.Time) {
	if len(rec.Sessions) == 0 {
		if clockIn == nil {
			if clockOut != nil {
				rec.ClockOut = clockOut
			}
			return
		}
		out := clockOut
		if out == nil {
			out = rec.ClockOut
		}
		session := attendance.Session{
			ID:           c.newID(),
			RecordID:     rec.ID,
			CheckIn:      *clockIn,
			WorkLocation: "office",
			Status:       attendance.SessionActive,
		}
		if out != nil {
			session.CheckOut = out
			session.Status = attendance.SessionCompleted
		}
		rec.ClockIn = nil
		rec.ClockOut = nil
		rec.Sessions = []attendance.Session{session}
	}

	if clockIn != nil {
		rec.Sessions[0].CheckIn = *clockIn
	}
	last := &rec.Sessions[len(rec.Sessions)-1]
	if clockOut != nil {
		last.CheckOut = clockOut
		last.Status = attendance.SessionCompleted
	}
	for i := range rec.Sessions {
		s := &rec.Sessions[i]
		if s.CheckOut != nil {
			worked := s.ComputeWorkedMinutes()
			s.WorkedMins = &worked
		}
	}
}

// Reject implements correction.Service.
func (c *CorrectionServiceImpl) Reject(ctx context.Context, req correction.RejectRequest) (correction.Response, error) {
	if err := req.Validate(); err != nil {
		return correction.Response{}, err
	}

	approverID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}

	now := c.now().UTC()

	var result correction.Request
	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		creq, err := c.corrections.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if creq.CompanyID != companyID {
			return correction.ErrCorrectionNotFound
		}
		if creq.Status != correction.StatusPending {
			return correction.ErrCorrectionAlreadyProcessed
		}

		creq.Status = correction.StatusRejected
		creq.ProcessedBy = &approverID
		creq.ProcessedAt = &now
		creq.AdminRemarks = &req.Remarks

		if err := c.corrections.Update(ctx, creq); err != nil {
			return err
		}
		result = creq
		return nil
	})
	if err != nil {
		return correction.Response{}, err
	}

	return mapRequestToResponse(&result), nil
}

// Cancel implements correction.Service.
func (c *CorrectionServiceImpl) Cancel(ctx context.Context, id string) (correction.Response, error) {
	employeeID, _, err := claimsFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}

	now := c.now().UTC()

	var result correction.Request
	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		creq, err := c.corrections.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if creq.EmployeeID != employeeID {
			return correction.ErrUnauthorized
		}
		if creq.Status != correction.StatusPending {
			return correction.ErrCorrectionAlreadyProcessed
		}

		creq.Status = correction.StatusCancelled
		creq.ProcessedAt = &now

		if err := c.corrections.Update(ctx, creq); err != nil {
			return err
		}
		result = creq
		return nil
	})
	if err != nil {
		return correction.Response{}, err
	}

	return mapRequestToResponse(&result), nil
}

// GetMyCorrections implements correction.Service.
func (c *CorrectionServiceImpl) GetMyCorrections(ctx context.Context, filter correction.Filter) (correction.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return correction.ListResponse{}, err
	}

	employeeID, _, err := claimsFromContext(ctx)
	if err != nil {
		return correction.ListResponse{}, err
	}

	requests, total, err := c.corrections.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return correction.ListResponse{}, err
	}

	return buildListResponse(requests, total, filter.Page, filter.Limit), nil
}

// ListCorrections implements correction.Service.
func (c *CorrectionServiceImpl) ListCorrections(ctx context.Context, filter correction.Filter) (correction.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return correction.ListResponse{}, err
	}

	_, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return correction.ListResponse{}, err
	}

	requests, total, err := c.corrections.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return correction.ListResponse{}, err
	}

	return buildListResponse(requests, total, filter.Page, filter.Limit), nil
}

func buildListResponse(requests []correction.Request, total int64, page, limit int) correction.ListResponse {
	responses := make([]correction.Response, 0, len(requests))
	for i := range requests {
		responses = append(responses, mapRequestToResponse(&requests[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	from := (page-1)*limit + 1
	to := (page-1)*limit + len(requests)
	if len(requests) == 0 {
		from = 0
	}

	return correction.ListResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    fmt.Sprintf("%d-%d of %d", from, to, total),
		Requests:   responses,
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func mapRequestToResponse(req *correction.Request) correction.Response {
	return correction.Response{
		ID:                 req.ID,
		EmployeeID:         req.EmployeeID,
		EmployeeName:       req.EmployeeName,
		Date:               req.Date.Format("2006-01-02"),
		AttendanceRecordID: req.AttendanceRecordID,
		RequestedClockIn:   timePtrToString(req.RequestedClockIn),
		RequestedClockOut:  timePtrToString(req.RequestedClockOut),
		Reason:             req.Reason,
		IssueType:          req.IssueType,
		Status:             req.Status,
		ProcessedBy:        req.ProcessedBy,
		ProcessedAt:        timePtrToString(req.ProcessedAt),
		AdminRemarks:       req.AdminRemarks,
		OriginalClockIn:    timePtrToString(req.OriginalClockIn),
		OriginalClockOut:   timePtrToString(req.OriginalClockOut),
		CorrectedClockIn:   timePtrToString(req.CorrectedClockIn),
		CorrectedClockOut:  timePtrToString(req.CorrectedClockOut),
		CreatedAt:          req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          req.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
