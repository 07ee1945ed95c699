package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-service-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-service-go/internal/pkg/validator"
)

// Backfiller re-finalizes unfinalized records in a date range.
type Backfiller interface {
	Backfill(ctx context.Context, from, to time.Time) (int, error)
}

type FinalizationHandler interface {
	Backfill(w http.ResponseWriter, r *http.Request)
}

type finalizationHandlerImpl struct {
	finalizer Backfiller
}

func NewFinalizationHandler(finalizer Backfiller) FinalizationHandler {
	return &finalizationHandlerImpl{
		finalizer: finalizer,
	}
}

type backfillRequest struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (req *backfillRequest) Validate() error {
	var errs validator.ValidationErrors

	from, fromValid := validator.IsValidDate(req.StartDate)
	if !fromValid {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	to, toValid := validator.IsValidDate(req.EndDate)
	if !toValid {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if fromValid && toValid && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Backfill implements FinalizationHandler.
func (h *finalizationHandlerImpl) Backfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	from, _ := validator.IsValidDate(req.StartDate)
	to, _ := validator.IsValidDate(req.EndDate)

	finalized, err := h.finalizer.Backfill(r.Context(), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Backfill completed", map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"finalized":  finalized,
	})
}
