package calendar

// DayInfo is what the leave/holiday collaborator knows about one employee's
// day. Consulted only during finalization, never during live transitions.
type DayInfo struct {
	IsHoliday         bool
	HolidayName       *string
	IsOnApprovedLeave bool
	LeaveTypeName     *string
}
