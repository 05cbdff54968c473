package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mondayAt(hour, minute int) time.Time {
	return time.Date(2026, time.September, 7, hour, minute, 0, 0, time.Local)
}

func TestWindowFor(t *testing.T) {
	schedule := WeekSchedule{
		"monday": {Enabled: true, Start: "08:00", End: "18:00"},
	}

	assert.True(t, schedule.WindowFor(time.Monday).Enabled)
	assert.False(t, schedule.WindowFor(time.Tuesday).Enabled, "missing weekday is disabled")

	var nilSchedule WeekSchedule
	assert.False(t, nilSchedule.WindowFor(time.Monday).Enabled)
}

func TestDayWindowContains(t *testing.T) {
	window := DayWindow{Enabled: true, Start: "08:00", End: "18:00"}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside window", mondayAt(9, 0), mondayAt(10, 0), true},
		{"exact bounds", mondayAt(8, 0), mondayAt(18, 0), true},
		{"starts before open", mondayAt(7, 30), mondayAt(8, 30), false},
		{"ends after close", mondayAt(17, 30), mondayAt(18, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window.Contains(tt.start, tt.end))
		})
	}

	disabled := DayWindow{Enabled: false, Start: "08:00", End: "18:00"}
	assert.False(t, disabled.Contains(mondayAt(9, 0), mondayAt(10, 0)))
}

func TestDayWindowBounds(t *testing.T) {
	window := DayWindow{Enabled: true, Start: "08:30", End: "17:15"}

	open, end, err := window.Bounds(mondayAt(0, 0))
	require.NoError(t, err)
	assert.Equal(t, mondayAt(8, 30), open)
	assert.Equal(t, mondayAt(17, 15), end)

	_, _, err = DayWindow{Start: "8am", End: "17:00"}.Bounds(mondayAt(0, 0))
	assert.Error(t, err)
}

func TestWeekScheduleScan(t *testing.T) {
	raw := []byte(`{"monday":{"enabled":true,"start":"09:00","end":"12:00"}}`)

	var schedule WeekSchedule
	require.NoError(t, schedule.Scan(raw))
	assert.Equal(t, DayWindow{Enabled: true, Start: "09:00", End: "12:00"}, schedule.WindowFor(time.Monday))

	require.NoError(t, schedule.Scan(nil))
	assert.Nil(t, schedule)

	assert.Error(t, schedule.Scan(42))
}

func TestAppointmentOverlaps(t *testing.T) {
	apt := &Appointment{
		StartTime: mondayAt(10, 0),
		EndTime:   mondayAt(11, 0),
	}

	assert.True(t, apt.Overlaps(mondayAt(10, 30), mondayAt(11, 30)))
	assert.True(t, apt.Overlaps(mondayAt(9, 30), mondayAt(10, 30)))
	assert.True(t, apt.Overlaps(mondayAt(10, 15), mondayAt(10, 45)))

	// Half-open intervals: touching boundaries never overlap.
	assert.False(t, apt.Overlaps(mondayAt(11, 0), mondayAt(12, 0)))
	assert.False(t, apt.Overlaps(mondayAt(9, 0), mondayAt(10, 0)))
}
