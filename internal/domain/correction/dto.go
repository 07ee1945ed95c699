package correction

import (
	"strings"

	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/validator"
)

// ========================================
// CORRECTION DTOs
// ========================================

type SubmitRequest struct {
	Date              string  `json:"date"`                         // YYYY-MM-DD
	RequestedClockIn  *string `json:"requested_clock_in,omitempty"` // RFC3339 or HH:MM:SS
	RequestedClockOut *string `json:"requested_clock_out,omitempty"`
	Reason            string  `json:"reason"`
	IssueType         string  `json:"issue_type"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.RequestedClockIn == nil && r.RequestedClockOut == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "requested_clock_in",
			Message: "at least one of requested_clock_in or requested_clock_out is required",
		})
	}

	for field, value := range map[string]*string{
		"requested_clock_in":  r.RequestedClockIn,
		"requested_clock_out": r.RequestedClockOut,
	} {
		if value == nil {
			continue
		}
		if !validator.IsValidClockValue(*value) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be an ISO8601 timestamp or HH:MM:SS",
			})
		}
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if !validator.IsInSlice(strings.ToLower(r.IssueType), IssueTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "issue_type",
			Message: "issue_type must be one of: " + strings.Join(IssueTypeValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DecideRequest carries an approver's verdict on a pending request.
type DecideRequest struct {
	ID      string  `json:"-"`
	Remarks *string `json:"remarks,omitempty"`
}

// RejectRequest requires a reason, mirroring attendance rejection.
type RejectRequest struct {
	ID      string `json:"-"`
	Remarks string `json:"remarks"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Remarks) {
		errs = append(errs, validator.ValidationError{
			Field:   "remarks",
			Message: "rejection remarks are required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type Response struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       *string `json:"employee_name,omitempty"`
	Date               string  `json:"date"`
	AttendanceRecordID *string `json:"attendance_record_id,omitempty"`
	RequestedClockIn   *string `json:"requested_clock_in,omitempty"`
	RequestedClockOut  *string `json:"requested_clock_out,omitempty"`
	Reason             string  `json:"reason"`
	IssueType          string  `json:"issue_type"`
	Status             string  `json:"status"`
	ProcessedBy        *string `json:"processed_by,omitempty"`
	ProcessedAt        *string `json:"processed_at,omitempty"`
	AdminRemarks       *string `json:"admin_remarks,omitempty"`
	OriginalClockIn    *string `json:"original_clock_in,omitempty"`
	OriginalClockOut   *string `json:"original_clock_out,omitempty"`
	CorrectedClockIn   *string `json:"corrected_clock_in,omitempty"`
	CorrectedClockOut  *string `json:"corrected_clock_out,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type ListResponse struct {
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
	Showing    string     `json:"showing"`
	Requests   []Response `json:"requests"`
}

var validStatusFilters = []string{
	StatusPending, StatusApproved, StatusRejected, StatusCorrected, StatusCancelled,
}

type Filter struct {
	Status    *string `json:"status,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, validStatusFilters) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(validStatusFilters, ", "),
		})
	}

	for name, value := range map[string]*string{"start_date": f.StartDate, "end_date": f.EndDate} {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   name,
					Message: name + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
