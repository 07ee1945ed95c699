package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-service-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service-go/internal/handler/http/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAttendanceService returns canned values so the handler layer can be
// exercised without a database.
type stubAttendanceService struct {
	record attendance.RecordResponse
	today  attendance.TodayStatusResponse
	list   attendance.ListResponse
	err    error
}

func (s *stubAttendanceService) StartSession(ctx context.Context, req attendance.StartSessionRequest) (attendance.RecordResponse, error) {
	return s.record, s.err
}

func (s *stubAttendanceService) EndSession(ctx context.Context) (attendance.RecordResponse, error) {
	return s.record, s.err
}

func (s *stubAttendanceService) StartBreak(ctx context.Context) (attendance.RecordResponse, error) {
	return s.record, s.err
}

func (s *stubAttendanceService) EndBreak(ctx context.Context) (attendance.RecordResponse, error) {
	return s.record, s.err
}

func (s *stubAttendanceService) GetTodayStatus(ctx context.Context) (attendance.TodayStatusResponse, error) {
	return s.today, s.err
}

func (s *stubAttendanceService) GetMyAttendance(ctx context.Context, filter attendance.MyFilter) (attendance.ListResponse, error) {
	return s.list, s.err
}

func (s *stubAttendanceService) ListAttendance(ctx context.Context, filter attendance.Filter) (attendance.ListResponse, error) {
	return s.list, s.err
}

func (s *stubAttendanceService) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	return s.record, s.err
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAttendanceHandler_StartSession_Success(t *testing.T) {
	svc := &stubAttendanceService{
		record: attendance.RecordResponse{ID: "rec-1", Status: attendance.StatusInProgress},
	}
	handler := NewAttendanceHandler(svc)

	payload, _ := json.Marshal(attendance.StartSessionRequest{WorkLocation: "office"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/sessions/start", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.StartSession(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
}

func TestAttendanceHandler_StartSession_InvalidWorkLocation(t *testing.T) {
	handler := NewAttendanceHandler(&stubAttendanceService{})

	payload, _ := json.Marshal(attendance.StartSessionRequest{WorkLocation: "moon"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/sessions/start", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.StartSession(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeResponse(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestAttendanceHandler_StartSession_AlreadyActive(t *testing.T) {
	svc := &stubAttendanceService{err: attendance.ErrAlreadyActiveSession}
	handler := NewAttendanceHandler(svc)

	payload, _ := json.Marshal(attendance.StartSessionRequest{WorkLocation: "office"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/sessions/start", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.StartSession(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendanceHandler_EndSession_NoActiveSession(t *testing.T) {
	svc := &stubAttendanceService{err: attendance.ErrNoActiveSession}
	handler := NewAttendanceHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/sessions/end", nil)
	rec := httptest.NewRecorder()

	handler.EndSession(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendanceHandler_GetTodayStatus(t *testing.T) {
	svc := &stubAttendanceService{
		today: attendance.TodayStatusResponse{
			Date:            "2024-03-11",
			HasRecord:       false,
			CanStartSession: true,
			Message:         "Not started yet",
		},
	}
	handler := NewAttendanceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/my/today", nil)
	rec := httptest.NewRecorder()

	handler.GetTodayStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
}

func TestAttendanceHandler_GetMyAttendance_InvalidStatusFilter(t *testing.T) {
	handler := NewAttendanceHandler(&stubAttendanceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/my?status=bogus", nil)
	rec := httptest.NewRecorder()

	handler.GetMyAttendance(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttendanceHandler_Get_NotFound(t *testing.T) {
	svc := &stubAttendanceService{err: attendance.ErrRecordNotFound}
	handler := NewAttendanceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/unknown", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}
