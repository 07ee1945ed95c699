package correction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/service/finalizer"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRecordRepo struct {
	records map[string]attendance.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[string]attendance.Record)}
}

func (f *fakeRecordRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := rec.Validate(); err != nil {
		return attendance.Record{}, err
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecordRepo) GetByIDForUpdate(ctx context.Context, id string) (attendance.Record, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRecordRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	for _, rec := range f.records {
		if rec.EmployeeID == employeeID && rec.Date.Equal(date) {
			copied := rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return f.GetByEmployeeAndDate(ctx, employeeID, date)
}

func (f *fakeRecordRepo) Save(ctx context.Context, rec attendance.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if _, ok := f.records[rec.ID]; !ok {
		return attendance.ErrRecordNotFound
	}
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeRecordRepo) ListUnfinalized(ctx context.Context, upTo time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, rec := range f.records {
		if !rec.Finalized && !rec.Date.After(upTo) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) List(ctx context.Context, filter attendance.Filter, companyID string) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (f *fakeRecordRepo) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

type fakeCorrectionRepo struct {
	requests map[string]correction.Request
}

func newFakeCorrectionRepo() *fakeCorrectionRepo {
	return &fakeCorrectionRepo{requests: make(map[string]correction.Request)}
}

func (f *fakeCorrectionRepo) Create(ctx context.Context, req correction.Request) (correction.Request, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.UpdatedAt = req.CreatedAt
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeCorrectionRepo) GetByID(ctx context.Context, id string) (correction.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return correction.Request{}, correction.ErrCorrectionNotFound
	}
	return req, nil
}

func (f *fakeCorrectionRepo) GetByIDForUpdate(ctx context.Context, id string) (correction.Request, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCorrectionRepo) Update(ctx context.Context, req correction.Request) error {
	if _, ok := f.requests[req.ID]; !ok {
		return correction.ErrCorrectionNotFound
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeCorrectionRepo) ListByEmployee(ctx context.Context, employeeID string, filter correction.Filter) ([]correction.Request, int64, error) {
	var out []correction.Request
	for _, req := range f.requests {
		if req.EmployeeID == employeeID {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCorrectionRepo) ListByCompany(ctx context.Context, companyID string, filter correction.Filter) ([]correction.Request, int64, error) {
	var out []correction.Request
	for _, req := range f.requests {
		if req.CompanyID == companyID {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCorrectionRepo) HasOpenForDate(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	for _, req := range f.requests {
		if req.EmployeeID == employeeID && req.Date.Equal(date) && req.Status == correction.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

type fakeShiftRepo struct {
	timezone string
	policy   *schedule.ShiftPolicy
}

func (f *fakeShiftRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*schedule.ShiftPolicy, error) {
	if f.policy == nil {
		return nil, schedule.ErrShiftPolicyNotFound
	}
	return f.policy, nil
}

func (f *fakeShiftRepo) GetTimezone(ctx context.Context, employeeID string) (string, error) {
	return f.timezone, nil
}

type fakeCalendarRepo struct{}

func (fakeCalendarRepo) GetDayInfo(ctx context.Context, employeeID string, date time.Time) (calendar.DayInfo, error) {
	return calendar.DayInfo{}, nil
}

type fakeEmployeeRepo struct{}

func (fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}

type openLease struct{}

func (openLease) Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (openLease) Release(ctx context.Context, name, holder string) error { return nil }

func authedContext(t *testing.T, employeeID, companyID string) context.Context {
	t.Helper()
	tok := jwt.New()
	require.NoError(t, tok.Set("employee_id", employeeID))
	require.NoError(t, tok.Set("company_id", companyID))
	return jwtauth.NewContext(context.Background(), tok, nil)
}

type fixture struct {
	svc         *CorrectionServiceImpl
	records     *fakeRecordRepo
	corrections *fakeCorrectionRepo
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	records := newFakeRecordRepo()
	corrections := newFakeCorrectionRepo()
	shifts := &fakeShiftRepo{
		timezone: "Asia/Jakarta",
		policy: &schedule.ShiftPolicy{
			ID:                 "shift-1",
			Name:               "Regular",
			ShiftStart:         time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC),
			ShiftEnd:           time.Date(2000, 1, 1, 18, 0, 0, 0, time.UTC),
			GracePeriodMinutes: 10,
			Timezone:           "Asia/Jakarta",
		},
	}

	fin := finalizer.NewService(passthroughTx{}, records, shifts, fakeCalendarRepo{}, corrections, fakeEmployeeRepo{}, openLease{}, finalizer.Config{
		Buffer:              time.Hour,
		LeaseTTL:            10 * time.Minute,
		CollaboratorTimeout: 2 * time.Second,
	})

	svc := NewCorrectionService(passthroughTx{}, corrections, records, shifts, fin)
	svc.now = func() time.Time { return now }
	counter := 0
	svc.newID = func() string {
		counter++
		return fmt.Sprintf("gen-%d", counter)
	}
	return &fixture{svc: svc, records: records, corrections: corrections}
}

func absentRecord(id string, date time.Time) attendance.Record {
	zero := 0
	reason := "worked 0 of 540 scheduled minutes"
	return attendance.Record{
		ID:            id,
		EmployeeID:    "emp-1",
		CompanyID:     "co-1",
		Date:          date,
		Status:        attendance.StatusAbsent,
		StatusReason:  &reason,
		Finalized:     true,
		WorkedMinutes: &zero,
	}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := authedContext(t, "emp-1", "co-1")

	clockIn := "09:00:00"
	clockOut := "17:30:00"
	resp, err := f.svc.Submit(ctx, correction.SubmitRequest{
		Date:              "2024-03-11",
		RequestedClockIn:  &clockIn,
		RequestedClockOut: &clockOut,
		Reason:            "forgot to clock in, badge reader was down",
		IssueType:         correction.IssueMissedClockIn,
	})
	require.NoError(t, err)

	assert.Equal(t, correction.StatusPending, resp.Status)
	assert.Equal(t, "2024-03-11", resp.Date)
	// 09:00 Jakarta is 02:00 UTC
	require.NotNil(t, resp.RequestedClockIn)
	assert.Equal(t, "2024-03-11T02:00:00Z", *resp.RequestedClockIn)
}

func TestSubmitRejectsDuplicateOpenRequest(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := authedContext(t, "emp-1", "co-1")

	clockIn := "09:00:00"
	req := correction.SubmitRequest{
		Date:             "2024-03-11",
		RequestedClockIn: &clockIn,
		Reason:           "missed clock in",
		IssueType:        correction.IssueMissedClockIn,
	}

	_, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, correction.ErrOpenCorrectionExists)
}

// Scenario: a day finalized absent is contested, approved, and re-finalized
// to present with the corrected times.
func TestApproveReopensAndRefinalizes(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	f.records.records["rec-1"] = absentRecord("rec-1", date)

	clockIn := "09:00:00"
	clockOut := "17:30:00"
	submitted, err := f.svc.Submit(authedContext(t, "emp-1", "co-1"), correction.SubmitRequest{
		Date:              "2024-03-11",
		RequestedClockIn:  &clockIn,
		RequestedClockOut: &clockOut,
		Reason:            "badge reader was down all day",
		IssueType:         correction.IssueMissedClockIn,
	})
	require.NoError(t, err)

	resp, err := f.svc.Approve(authedContext(t, "admin-1", "co-1"), correction.DecideRequest{ID: submitted.ID})
	require.NoError(t, err)

	assert.Equal(t, correction.StatusCorrected, resp.Status)
	require.NotNil(t, resp.ProcessedBy)
	assert.Equal(t, "admin-1", *resp.ProcessedBy)
	require.NotNil(t, resp.CorrectedClockIn)
	assert.Equal(t, "2024-03-11T02:00:00Z", *resp.CorrectedClockIn)

	rec := f.records.records["rec-1"]
	assert.True(t, rec.Finalized)
	// 09:00-17:30 Jakarta is 510 of 540 scheduled minutes
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	require.NotNil(t, rec.WorkedMinutes)
	assert.Equal(t, 510, *rec.WorkedMinutes)
	require.NotNil(t, rec.LastCorrectedAt)
}

func TestApproveCreatesRecordWhenNoneExists(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	clockIn := "09:00:00"
	clockOut := "17:30:00"
	submitted, err := f.svc.Submit(authedContext(t, "emp-1", "co-1"), correction.SubmitRequest{
		Date:              "2024-03-11",
		RequestedClockIn:  &clockIn,
		RequestedClockOut: &clockOut,
		Reason:            "worked offsite, never registered",
		IssueType:         correction.IssueOther,
	})
	require.NoError(t, err)

	resp, err := f.svc.Approve(authedContext(t, "admin-1", "co-1"), correction.DecideRequest{ID: submitted.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.AttendanceRecordID)

	rec := f.records.records[*resp.AttendanceRecordID]
	assert.True(t, rec.Finalized)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	require.Len(t, rec.Sessions, 1)
}

func TestApproveStaleRecordConflict(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	rec := absentRecord("rec-1", date)
	corrected := now.Add(-time.Hour)
	rec.LastCorrectedAt = &corrected
	f.records.records["rec-1"] = rec

	// Filed before the record's last correction landed.
	f.corrections.requests["creq-1"] = correction.Request{
		ID:         "creq-1",
		EmployeeID: "emp-1",
		CompanyID:  "co-1",
		Date:       date,
		Reason:     "wrong clock out",
		IssueType:  correction.IssueWrongTime,
		Status:     correction.StatusPending,
		CreatedAt:  now.Add(-2 * time.Hour),
	}

	_, err := f.svc.Approve(authedContext(t, "admin-1", "co-1"), correction.DecideRequest{ID: "creq-1"})
	assert.ErrorIs(t, err, correction.ErrStaleRecordConflict)

	// Request stays pending for the submitter to cancel and re-file.
	assert.Equal(t, correction.StatusPending, f.corrections.requests["creq-1"].Status)
}

func TestRejectLeavesRecordUntouched(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	f.records.records["rec-1"] = absentRecord("rec-1", date)

	clockIn := "09:00:00"
	submitted, err := f.svc.Submit(authedContext(t, "emp-1", "co-1"), correction.SubmitRequest{
		Date:             "2024-03-11",
		RequestedClockIn: &clockIn,
		Reason:           "I was here",
		IssueType:        correction.IssueMissedClockIn,
	})
	require.NoError(t, err)

	resp, err := f.svc.Reject(authedContext(t, "admin-1", "co-1"), correction.RejectRequest{
		ID:      submitted.ID,
		Remarks: "no badge or camera evidence for this day",
	})
	require.NoError(t, err)
	assert.Equal(t, correction.StatusRejected, resp.Status)

	rec := f.records.records["rec-1"]
	assert.True(t, rec.Finalized)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)

	// Terminal requests cannot be re-processed.
	_, err = f.svc.Approve(authedContext(t, "admin-1", "co-1"), correction.DecideRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, correction.ErrCorrectionAlreadyProcessed)
}

func TestCancelOnlyBySubmitter(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	clockIn := "09:00:00"
	submitted, err := f.svc.Submit(authedContext(t, "emp-1", "co-1"), correction.SubmitRequest{
		Date:             "2024-03-11",
		RequestedClockIn: &clockIn,
		Reason:           "missed clock in",
		IssueType:        correction.IssueMissedClockIn,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(authedContext(t, "emp-2", "co-1"), submitted.ID)
	assert.ErrorIs(t, err, correction.ErrUnauthorized)

	resp, err := f.svc.Cancel(authedContext(t, "emp-1", "co-1"), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusCancelled, resp.Status)
}
