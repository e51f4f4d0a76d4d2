package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/restaurant-reservation/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recurring(id uint64, name, start, end string, days ...string) model.Shift {
	return model.Shift{
		ID: id, Name: name, Type: model.ShiftTypeRecurring,
		DaysActive: days, StartTime: start, EndTime: end, IsActive: true,
	}
}

func special(id uint64, name string, from, to time.Time, start, end string) model.Shift {
	return model.Shift{
		ID: id, Name: name, Type: model.ShiftTypeSpecial,
		StartDate: &from, EndDate: &to,
		StartTime: start, EndTime: end, IsActive: true,
	}
}

var allWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"18:30", 1110, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"18:60", 0, true},
		{"1830", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestResolveExactContainment(t *testing.T) {
	dinner := recurring(1, "Dinner", "18:00", "22:00", allWeek...)
	monday := date(2024, time.June, 10) // a Monday

	res, err := Resolve([]model.Shift{dinner}, monday, "19:00")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Shift.ID)
	assert.False(t, res.Nearest)
}

func TestResolveEndTimeIsExclusive(t *testing.T) {
	lunch := recurring(1, "Lunch", "12:00", "15:00", allWeek...)
	dinner := recurring(2, "Dinner", "15:00", "22:00", allWeek...)
	day := date(2024, time.June, 10)

	// 15:00 is the end of Lunch (half-open, excluded) and the start of Dinner.
	res, err := Resolve([]model.Shift{lunch, dinner}, day, "15:00")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", res.Shift.Name)
	assert.False(t, res.Nearest)
}

func TestResolveNearestWithinTolerance(t *testing.T) {
	dinner := recurring(1, "Dinner", "18:00", "22:00", allWeek...)
	day := date(2024, time.June, 10)

	// 55 minutes before open: best-effort nearest assignment.
	res, err := Resolve([]model.Shift{dinner}, day, "17:05")
	require.NoError(t, err)
	assert.True(t, res.Nearest)
	assert.Equal(t, "Dinner", res.Shift.Name)

	// 65 minutes before open: outside tolerance.
	_, err = Resolve([]model.Shift{dinner}, day, "16:55")
	assert.ErrorIs(t, err, ErrOutsideShiftWindow)
}

func TestResolveNoShiftsForDay(t *testing.T) {
	weekend := recurring(1, "Brunch", "10:00", "14:00", "Saturday", "Sunday")
	monday := date(2024, time.June, 10)

	_, err := Resolve([]model.Shift{weekend}, monday, "11:00")
	assert.ErrorIs(t, err, ErrNoShiftsForDay)
}

func TestResolveInactiveShiftIgnored(t *testing.T) {
	dinner := recurring(1, "Dinner", "18:00", "22:00", allWeek...)
	dinner.IsActive = false

	_, err := Resolve([]model.Shift{dinner}, date(2024, time.June, 10), "19:00")
	assert.ErrorIs(t, err, ErrNoShiftsForDay)
}

func TestResolveSpecialDateRange(t *testing.T) {
	event := special(5, "Wine Week", date(2024, time.July, 1), date(2024, time.July, 7), "17:00", "23:00")
	shifts := []model.Shift{event}

	res, err := Resolve(shifts, date(2024, time.July, 7), "18:00") // last day, inclusive
	require.NoError(t, err)
	assert.Equal(t, "Wine Week", res.Shift.Name)

	_, err = Resolve(shifts, date(2024, time.July, 8), "18:00")
	assert.ErrorIs(t, err, ErrNoShiftsForDay)
}

func TestResolveTieBreaksOnLowestID(t *testing.T) {
	// Both shifts start equidistant (30 min) from 12:00; neither contains it.
	a := recurring(7, "Early", "12:30", "14:00", allWeek...)
	b := recurring(3, "Late", "11:00", "11:30", allWeek...)
	// Present higher-id first to prove ordering does not depend on input order.
	res, err := Resolve([]model.Shift{a, b}, date(2024, time.June, 10), "12:00")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Shift.ID)
	assert.True(t, res.Nearest)
}

func TestCandidatesMixesRecurringAndSpecial(t *testing.T) {
	dinner := recurring(1, "Dinner", "18:00", "22:00", "Monday")
	event := special(2, "Private", date(2024, time.June, 10), date(2024, time.June, 10), "12:00", "16:00")
	got := Candidates([]model.Shift{dinner, event}, date(2024, time.June, 10))
	assert.Len(t, got, 2)
}
