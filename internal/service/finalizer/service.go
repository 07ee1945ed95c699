package finalizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/timeclock"
	attendancesvc "github.com/cmlabs-hris/attendance-service-go/internal/service/attendance"
	"github.com/google/uuid"
)

const leaseName = "attendance_finalization"

// LeaseStore guards the sweep against concurrent runs across instances.
type LeaseStore interface {
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}

type Config struct {
	// Buffer after shift end before a record becomes eligible, so
	// late clock-outs land before the verdict is written.
	Buffer time.Duration

	// LeaseTTL bounds how long a crashed holder blocks other instances.
	LeaseTTL time.Duration

	// CollaboratorTimeout bounds the leave/holiday lookup per record.
	CollaboratorTimeout time.Duration

	// LookbackDays is how far the absence pre-pass scans for days with no
	// record at all.
	LookbackDays int

	// FailureLimit aborts the sweep after this many consecutive failures,
	// on the assumption that something systemic broke.
	FailureLimit int
}

// Service runs the idempotent finalization sweep that turns live attendance
// records into immutable verdicts.
type Service struct {
	tx          database.TxRunner
	records     attendance.Repository
	shifts      schedule.Repository
	calendars   calendar.Repository
	corrections correction.Repository
	employees   employee.Repository
	leases      LeaseStore
	cfg         Config

	holder string

	// Injectable for tests
	now   func() time.Time
	newID func() string
}

func NewService(
	tx database.TxRunner,
	records attendance.Repository,
	shifts schedule.Repository,
	calendars calendar.Repository,
	corrections correction.Repository,
	employees employee.Repository,
	leases LeaseStore,
	cfg Config,
) *Service {
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 5
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 3
	}
	return &Service{
		tx:          tx,
		records:     records,
		shifts:      shifts,
		calendars:   calendars,
		corrections: corrections,
		employees:   employees,
		leases:      leases,
		cfg:         cfg,
		holder:      uuid.NewString(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// RegisterJobs wires the sweep into the cron scheduler.
func (s *Service) RegisterJobs(scheduler *cron.Scheduler, interval time.Duration) {
	scheduler.AddJob("finalize_attendance", interval, s.Sweep)
}

// Sweep finalizes every eligible record. It is safe to run on any schedule
// and from any number of instances: the lease admits one sweeper at a time
// and finalization itself is an idempotent no-op on already-final records.
func (s *Service) Sweep(ctx context.Context) error {
	acquired, err := s.leases.Acquire(ctx, leaseName, s.holder, s.cfg.LeaseTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire finalization lease: %w", err)
	}
	if !acquired {
		slog.Debug("Finalization lease held by another instance, skipping sweep")
		return nil
	}
	defer func() {
		if err := s.leases.Release(ctx, leaseName, s.holder); err != nil {
			slog.Error("Failed to release finalization lease", "error", err)
		}
	}()

	now := s.now().UTC()

	if err := s.markAbsentees(ctx, now); err != nil {
		slog.Error("Absence pre-pass failed", "error", err)
	}

	candidates, err := s.records.ListUnfinalized(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list unfinalized records: %w", err)
	}

	finalized := 0
	skipped := 0
	consecutiveFailures := 0

	for i := range candidates {
		rec := &candidates[i]

		policy, err := s.shifts.GetByEmployeeAndDate(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			if errors.Is(err, schedule.ErrShiftPolicyNotFound) {
				// No policy means no verdict; leave the record for a later
				// sweep once a schedule is assigned.
				slog.Warn("No shift policy for record, skipping",
					"record_id", rec.ID, "employee_id", rec.EmployeeID,
					"date", rec.Date.Format("2006-01-02"))
				skipped++
				continue
			}
			slog.Error("Failed to resolve shift policy", "record_id", rec.ID, "error", err)
			consecutiveFailures++
			if consecutiveFailures >= s.cfg.FailureLimit {
				return fmt.Errorf("aborting sweep after %d consecutive failures", consecutiveFailures)
			}
			continue
		}

		_, shiftEnd := policy.BoundsOn(rec.Date, policy.Location())
		if now.Before(shiftEnd.Add(s.cfg.Buffer)) {
			skipped++
			continue
		}

		if err := s.FinalizeRecord(ctx, rec.ID); err != nil {
			slog.Error("Failed to finalize record", "record_id", rec.ID, "error", err)
			consecutiveFailures++
			if consecutiveFailures >= s.cfg.FailureLimit {
				return fmt.Errorf("aborting sweep after %d consecutive failures", consecutiveFailures)
			}
			continue
		}
		consecutiveFailures = 0
		finalized++
	}

	slog.Info("Finalization sweep completed",
		"candidates", len(candidates), "finalized", finalized, "skipped", skipped)
	return nil
}

// FinalizeRecord finalizes one record in its own transaction under the row
// lock. Already-final records are a no-op, which makes retries and the
// sweep/correction overlap safe.
func (s *Service) FinalizeRecord(ctx context.Context, recordID string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.records.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		if rec.Finalized {
			return nil
		}

		policy, err := s.shifts.GetByEmployeeAndDate(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			return err
		}

		loc := policy.Location()
		shiftStart, shiftEnd := policy.BoundsOn(rec.Date, loc)

		// Settle sessions the employee never closed.
		rec.CloseDanglingAt(shiftEnd.UTC())

		dayCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
		day, err := s.calendars.GetDayInfo(dayCtx, rec.EmployeeID, rec.Date)
		cancel()
		if err != nil {
			return fmt.Errorf("leave/holiday lookup failed: %w", err)
		}

		hasOpenCorrection, err := s.corrections.HasOpenForDate(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			return fmt.Errorf("pending correction lookup failed: %w", err)
		}

		verdict := attendancesvc.ClassifyFinal(&rec, policy, day, hasOpenCorrection, loc)

		worked := rec.TotalWorkedMinutes()
		rec.WorkedMinutes = &worked
		if first := localClock(&rec, rec.FirstCheckIn(), loc); first != nil {
			late := timeclock.LateMinutes(*first, shiftStart, policy.GracePeriodMinutes)
			rec.LateMinutes = &late
		}
		if last := localClock(&rec, rec.LastCheckOut(), loc); last != nil {
			early := timeclock.EarlyDepartureMinutes(*last, shiftEnd)
			rec.EarlyLeaveMinutes = &early
		}

		rec.Status = verdict.Status
		rec.StatusReason = verdict.StatusReason
		rec.HalfDayType = verdict.HalfDayType
		// pending_correction stays unfinalized so the sweep revisits the day
		// once the request reaches a terminal state.
		rec.Finalized = verdict.Status != attendance.StatusPendingCorrection

		return s.records.Save(ctx, rec)
	})
}

// localClock resolves a stored clock timestamp for comparison against shift
// bounds. Session check-ins are stamped by this service and convert through
// their real offset; legacy clock pairs came from client submissions and go
// through the double-conversion heuristic.
func localClock(rec *attendance.Record, t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	if len(rec.Sessions) > 0 {
		local := t.In(loc)
		return &local
	}
	local := timeclock.ResolveLocal(*t, loc)
	return &local
}

// markAbsentees creates empty records for recent scheduled days with no
// record at all, so the sweep can assign them a verdict. Per-employee
// failures are logged and skipped; the next sweep retries.
func (s *Service) markAbsentees(ctx context.Context, now time.Time) error {
	active, err := s.employees.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	created := 0
	for _, emp := range active {
		timezoneStr, err := s.shifts.GetTimezone(ctx, emp.ID)
		if err != nil {
			continue
		}
		loc, err := time.LoadLocation(timezoneStr)
		if err != nil {
			loc = time.UTC
		}

		nowLocal := now.In(loc)
		for d := 1; d <= s.cfg.LookbackDays; d++ {
			dayLocal := nowLocal.AddDate(0, 0, -d)
			date := time.Date(dayLocal.Year(), dayLocal.Month(), dayLocal.Day(), 0, 0, 0, 0, time.UTC)

			policy, err := s.shifts.GetByEmployeeAndDate(ctx, emp.ID, date)
			if err != nil {
				// No schedule that day, nothing to mark.
				continue
			}

			_, shiftEnd := policy.BoundsOn(date, loc)
			if now.Before(shiftEnd.Add(s.cfg.Buffer)) {
				continue
			}

			existing, err := s.records.GetByEmployeeAndDate(ctx, emp.ID, date)
			if err != nil {
				slog.Error("Absence pre-pass lookup failed",
					"employee_id", emp.ID, "date", date.Format("2006-01-02"), "error", err)
				continue
			}
			if existing != nil {
				continue
			}

			_, err = s.records.Create(ctx, attendance.Record{
				ID:         s.newID(),
				EmployeeID: emp.ID,
				CompanyID:  emp.CompanyID,
				Date:       date,
				Status:     attendance.StatusNotStarted,
			})
			if err != nil {
				slog.Error("Failed to create absence record",
					"employee_id", emp.ID, "date", date.Format("2006-01-02"), "error", err)
				continue
			}
			created++
		}
	}

	if created > 0 {
		slog.Info("Absence pre-pass created records", "count", created)
	}
	return nil
}

// Backfill finalizes unfinalized records in the inclusive date range,
// regardless of the eligibility buffer. Used by the admin backfill endpoint
// after incidents or missed sweeps.
func (s *Service) Backfill(ctx context.Context, from, to time.Time) (int, error) {
	candidates, err := s.records.ListUnfinalized(ctx, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list unfinalized records: %w", err)
	}

	finalized := 0
	for i := range candidates {
		rec := &candidates[i]
		if rec.Date.Before(from) {
			continue
		}
		if err := s.FinalizeRecord(ctx, rec.ID); err != nil {
			slog.Error("Backfill failed to finalize record", "record_id", rec.ID, "error", err)
			continue
		}
		finalized++
	}

	slog.Info("Backfill completed", "from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"), "finalized", finalized)
	return finalized, nil
}
