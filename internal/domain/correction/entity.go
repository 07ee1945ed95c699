package correction

import "time"

// Request statuses. pending is the only non-terminal state; approved is a
// transitional value visible only inside the approval transaction before
// the re-finalization lands and the request becomes corrected.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCorrected = "corrected"
	StatusCancelled = "cancelled"
)

// Issue types an employee can file.
const (
	IssueMissedClockIn  = "missed_clock_in"
	IssueMissedClockOut = "missed_clock_out"
	IssueWrongTime      = "wrong_time"
	IssueOther          = "other"
)

var IssueTypeValues = []string{
	IssueMissedClockIn, IssueMissedClockOut, IssueWrongTime, IssueOther,
}

// Request is an employee's contest of a finalized attendance record.
type Request struct {
	ID                 string
	EmployeeID         string
	CompanyID          string
	Date               time.Time
	AttendanceRecordID *string

	RequestedClockIn  *time.Time
	RequestedClockOut *time.Time
	Reason            string
	IssueType         string

	Status       string
	ProcessedBy  *string
	ProcessedAt  *time.Time
	AdminRemarks *string

	// Audit trail written during approval
	OriginalClockIn   *time.Time
	OriginalClockOut  *time.Time
	CorrectedClockIn  *time.Time
	CorrectedClockOut *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	EmployeeName *string
}

// IsTerminal reports whether the request can no longer change state.
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusRejected, StatusCancelled, StatusCorrected:
		return true
	}
	return false
}
