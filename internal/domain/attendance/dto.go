package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/validator"
)

// ========================================
// SESSION TRACKING DTOs
// ========================================

type StartSessionRequest struct {
	WorkLocation string `json:"work_location"`
}

var validWorkLocations = []string{"office", "home", "field"}

func (r *StartSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WorkLocation) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_location",
			Message: "work_location is required",
		})
	} else if !validator.IsInSlice(strings.ToLower(r.WorkLocation), validWorkLocations) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_location",
			Message: "work_location must be one of: office, home, field",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BreakResponse struct {
	ID              string  `json:"id"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

type SessionResponse struct {
	ID            string          `json:"id"`
	CheckIn       string          `json:"check_in"`
	CheckOut      *string         `json:"check_out,omitempty"`
	WorkLocation  string          `json:"work_location"`
	Status        string          `json:"status"`
	WorkedMinutes *int            `json:"worked_minutes,omitempty"`
	Breaks        []BreakResponse `json:"breaks"`
}

type RecordResponse struct {
	ID                string            `json:"id"`
	EmployeeID        string            `json:"employee_id"`
	EmployeeName      *string           `json:"employee_name,omitempty"`
	Date              string            `json:"date"`
	Status            string            `json:"status"`
	StatusReason      *string           `json:"status_reason,omitempty"`
	HalfDayType       *string           `json:"half_day_type,omitempty"`
	Finalized         bool              `json:"finalized"`
	WorkedMinutes     int               `json:"worked_minutes"`
	LateMinutes       *int              `json:"late_minutes,omitempty"`
	EarlyLeaveMinutes *int              `json:"early_leave_minutes,omitempty"`
	ClockIn           *string           `json:"clock_in,omitempty"`
	ClockOut          *string           `json:"clock_out,omitempty"`
	Sessions          []SessionResponse `json:"sessions"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

type TodayStatusResponse struct {
	Date            string          `json:"date"`
	HasRecord       bool            `json:"has_record"`
	Record          *RecordResponse `json:"record,omitempty"`
	CanStartSession bool            `json:"can_start_session"`
	CanEndSession   bool            `json:"can_end_session"`
	CanStartBreak   bool            `json:"can_start_break"`
	CanEndBreak     bool            `json:"can_end_break"`
	Message         string          `json:"message"`
}

type ListResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Showing    string           `json:"showing"`
	Records    []RecordResponse `json:"records"`
}

// ========================================
// FILTERS
// ========================================

var validStatusFilters = []string{
	StatusNotStarted, StatusInProgress, StatusOnBreak, StatusCompleted,
	StatusPresent, StatusHalfDay, StatusAbsent, StatusLeave, StatusHoliday,
	StatusPendingCorrection,
}

type Filter struct {
	// Search & Filter
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status       *string `json:"status,omitempty"`
	Finalized    *bool   `json:"finalized,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_name, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)

	if f.Status != nil && !validator.IsInSlice(*f.Status, validStatusFilters) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(validStatusFilters, ", "),
		})
	}

	errs = append(errs, validateDateFields(map[string]*string{
		"date":       f.Date,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	})...)

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_name", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, employee_name, status",
			})
		}
	} else {
		f.SortBy = "date"
	}
	if err := validateSortOrder(&f.SortOrder); err != nil {
		errs = append(errs, *err)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MyFilter struct {
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortBy    string `json:"sort_by"`    // date, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MyFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)

	if f.Status != nil && !validator.IsInSlice(*f.Status, validStatusFilters) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(validStatusFilters, ", "),
		})
	}

	errs = append(errs, validateDateFields(map[string]*string{
		"date":       f.Date,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	})...)

	if f.SortBy != "" {
		validSortFields := []string{"date", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, status",
			})
		}
	} else {
		f.SortBy = "date"
	}
	if err := validateSortOrder(&f.SortOrder); err != nil {
		errs = append(errs, *err)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validatePagination(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1 // Default page
	}

	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20 // Default limit
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}

func validateDateFields(fields map[string]*string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for name, value := range fields {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   name,
					Message: name + " must be in YYYY-MM-DD format",
				})
			}
		}
	}
	return errs
}

func validateSortOrder(sortOrder *string) *validator.ValidationError {
	if *sortOrder == "" {
		*sortOrder = "desc" // Default descending (newest first)
		return nil
	}
	if !validator.IsInSlice(strings.ToLower(*sortOrder), []string{"asc", "desc"}) {
		return &validator.ValidationError{
			Field:   "sort_order",
			Message: "sort_order must be one of: asc, desc",
		}
	}
	return nil
}
