package correction

import "errors"

// Correction domain errors
var (
	ErrCorrectionNotFound         = errors.New("correction request not found")
	ErrCorrectionAlreadyProcessed = errors.New("correction request has already been processed")
	ErrOpenCorrectionExists       = errors.New("an open correction request already exists for this date")

	// ErrStaleRecordConflict means the attendance record changed under an
	// approved correction since this request was filed; the submitter must
	// re-file against the current record.
	ErrStaleRecordConflict = errors.New("attendance record was modified by another correction; please re-file")

	ErrUnauthorized = errors.New("unauthorized to access this correction request")
)
