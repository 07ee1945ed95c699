package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/correction"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-service-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance sequencing errors
	case errors.Is(err, attendance.ErrAlreadyActiveSession):
		Conflict(w, "An active session already exists for today")
	case errors.Is(err, attendance.ErrNoActiveSession):
		Conflict(w, "No active session for today")
	case errors.Is(err, attendance.ErrBreakInProgress):
		Conflict(w, "End the open break before ending the session")
	case errors.Is(err, attendance.ErrBreakAlreadyActive):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrNoActiveBreak):
		Conflict(w, "No open break to end")
	case errors.Is(err, attendance.ErrRecordFinalized):
		Conflict(w, "Attendance record has been finalized")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "Not allowed to access this attendance record")

	// Correction domain errors
	case errors.Is(err, correction.ErrCorrectionNotFound):
		NotFound(w, "Correction request not found")
	case errors.Is(err, correction.ErrCorrectionAlreadyProcessed):
		Conflict(w, "Correction request already processed")
	case errors.Is(err, correction.ErrOpenCorrectionExists):
		Conflict(w, "An open correction request already exists for this date")
	case errors.Is(err, correction.ErrStaleRecordConflict):
		Conflict(w, "Attendance record changed since this request was filed, please re-file")
	case errors.Is(err, correction.ErrUnauthorized):
		Forbidden(w, "Not allowed to access this correction request")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrShiftPolicyNotFound):
		NotFound(w, "No shift policy found for this employee and date")
	case errors.Is(err, schedule.ErrTimezoneNotFound):
		NotFound(w, "No timezone configured for this employee")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
