package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(hour, min int) time.Time {
	return time.Date(2024, 3, 11, hour, min, 0, 0, time.UTC)
}

func newTestRecord() *Record {
	return &Record{
		ID:         "rec-1",
		EmployeeID: "emp-1",
		CompanyID:  "co-1",
		Date:       time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Status:     StatusNotStarted,
	}
}

func TestRecord_StartSession(t *testing.T) {
	rec := newTestRecord()

	s, err := rec.StartSession("s-1", "office", clock(9, 0))
	require.NoError(t, err)
	assert.Equal(t, SessionActive, s.Status)
	assert.Equal(t, 0, s.Position)

	// Second start while the first is open must be rejected without mutation.
	_, err = rec.StartSession("s-2", "office", clock(9, 5))
	assert.ErrorIs(t, err, ErrAlreadyActiveSession)
	assert.Len(t, rec.Sessions, 1)
}

func TestRecord_StartSession_AfterCompletedSession(t *testing.T) {
	rec := newTestRecord()

	_, err := rec.StartSession("s-1", "office", clock(9, 0))
	require.NoError(t, err)
	_, err = rec.EndSession(clock(12, 0))
	require.NoError(t, err)

	// A new session on the same day is allowed once the previous one closed.
	s, err := rec.StartSession("s-2", "home", clock(13, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Position)
	assert.Len(t, rec.Sessions, 2)
}

func TestRecord_EndSession_Guards(t *testing.T) {
	rec := newTestRecord()

	_, err := rec.EndSession(clock(17, 0))
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = rec.StartSession("s-1", "office", clock(9, 0))
	require.NoError(t, err)
	_, err = rec.StartBreak("b-1", clock(12, 0))
	require.NoError(t, err)

	// Ending a session with an open break must fail.
	_, err = rec.EndSession(clock(17, 0))
	assert.ErrorIs(t, err, ErrBreakInProgress)

	_, err = rec.EndBreak(clock(12, 30))
	require.NoError(t, err)

	s, err := rec.EndSession(clock(17, 0))
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, s.Status)
	require.NotNil(t, s.WorkedMins)
	assert.Equal(t, 8*60-30, *s.WorkedMins)
}

func TestRecord_BreakGuards(t *testing.T) {
	rec := newTestRecord()

	_, err := rec.StartBreak("b-1", clock(12, 0))
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = rec.EndBreak(clock(12, 30))
	assert.ErrorIs(t, err, ErrNoActiveBreak)

	_, err = rec.StartSession("s-1", "office", clock(9, 0))
	require.NoError(t, err)

	_, err = rec.EndBreak(clock(12, 30))
	assert.ErrorIs(t, err, ErrNoActiveBreak)

	_, err = rec.StartBreak("b-1", clock(12, 0))
	require.NoError(t, err)
	assert.Equal(t, SessionOnBreak, rec.Sessions[0].Status)

	_, err = rec.StartBreak("b-2", clock(12, 5))
	assert.ErrorIs(t, err, ErrBreakAlreadyActive)

	b, err := rec.EndBreak(clock(12, 45))
	require.NoError(t, err)
	require.NotNil(t, b.DurationMins)
	assert.Equal(t, 45, *b.DurationMins)
	assert.Equal(t, SessionActive, rec.Sessions[0].Status)
}

func TestRecord_FinalizedRejectsMutation(t *testing.T) {
	rec := newTestRecord()
	rec.Status = StatusPresent
	rec.Finalized = true

	_, err := rec.StartSession("s-1", "office", clock(9, 0))
	assert.ErrorIs(t, err, ErrRecordFinalized)
	_, err = rec.EndSession(clock(17, 0))
	assert.ErrorIs(t, err, ErrRecordFinalized)
	_, err = rec.StartBreak("b-1", clock(12, 0))
	assert.ErrorIs(t, err, ErrRecordFinalized)
	_, err = rec.EndBreak(clock(12, 30))
	assert.ErrorIs(t, err, ErrRecordFinalized)
}

func TestSession_BreakTotalNeverExceedsSpan(t *testing.T) {
	rec := newTestRecord()

	_, err := rec.StartSession("s-1", "office", clock(9, 0))
	require.NoError(t, err)
	_, err = rec.StartBreak("b-1", clock(10, 0))
	require.NoError(t, err)
	_, err = rec.EndBreak(clock(10, 40))
	require.NoError(t, err)
	_, err = rec.StartBreak("b-2", clock(12, 0))
	require.NoError(t, err)
	_, err = rec.EndBreak(clock(12, 20))
	require.NoError(t, err)
	s, err := rec.EndSession(clock(17, 0))
	require.NoError(t, err)

	span := int(s.CheckOut.Sub(s.CheckIn) / time.Minute)
	assert.LessOrEqual(t, s.TotalBreakMinutes(), span)
	assert.Equal(t, 60, s.TotalBreakMinutes())
	assert.Equal(t, span-60, s.ComputeWorkedMinutes())
	assert.NoError(t, rec.Validate())
}

func TestRecord_TotalWorkedMinutes_LegacyFallback(t *testing.T) {
	in := clock(9, 0)
	out := clock(16, 30)
	rec := newTestRecord()
	rec.ClockIn = &in
	rec.ClockOut = &out

	assert.Equal(t, 450, rec.TotalWorkedMinutes())
}

func TestRecord_Validate_RejectsCorruptShapes(t *testing.T) {
	rec := newTestRecord()
	rec.Sessions = []Session{
		{ID: "s-1", CheckIn: clock(9, 0), Status: SessionActive},
		{ID: "s-2", CheckIn: clock(9, 5), Status: SessionActive},
	}
	assert.ErrorIs(t, rec.Validate(), ErrInvariantViolation)

	rec = newTestRecord()
	rec.Status = StatusInProgress
	rec.Finalized = true
	assert.ErrorIs(t, rec.Validate(), ErrInvariantViolation)

	rec = newTestRecord()
	out := clock(17, 0)
	rec.Sessions = []Session{{
		ID: "s-1", CheckIn: clock(9, 0), CheckOut: &out, Status: SessionCompleted,
		Breaks: []Break{{ID: "b-1", StartTime: clock(12, 0)}},
	}}
	assert.ErrorIs(t, rec.Validate(), ErrInvariantViolation)
}
