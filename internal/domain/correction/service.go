package correction

import "context"

// Service defines the correction workflow. Submit never mutates the
// attendance record; approval reopens it, applies the corrected times and
// synchronously re-finalizes it to a new verdict.
type Service interface {
	// Submit files a pending correction for the authenticated employee.
	Submit(ctx context.Context, req SubmitRequest) (Response, error)

	// Approve applies the correction and re-finalizes the record.
	Approve(ctx context.Context, req DecideRequest) (Response, error)

	// Reject closes the request without touching the record.
	Reject(ctx context.Context, req RejectRequest) (Response, error)

	// Cancel lets the submitting employee withdraw a pending request.
	Cancel(ctx context.Context, id string) (Response, error)

	// GetMyCorrections lists the authenticated employee's requests.
	GetMyCorrections(ctx context.Context, filter Filter) (ListResponse, error)

	// ListCorrections lists a company's requests (admin/manager).
	ListCorrections(ctx context.Context, filter Filter) (ListResponse, error)
}
