package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DayWindow is a single weekday's working window. Start and End are
// wall-clock times in "HH:MM" 24h format, interpreted in the clinic's
// local timezone.
type DayWindow struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// WeekSchedule maps lowercase weekday names ("monday".."sunday") to
// their working windows. Stored as a JSONB column.
type WeekSchedule map[string]DayWindow

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// WindowFor returns the window configured for the given weekday.
// A missing entry is treated as a disabled day.
func (s WeekSchedule) WindowFor(day time.Weekday) DayWindow {
	if s == nil {
		return DayWindow{}
	}
	return s[weekdayNames[day]]
}

func (s WeekSchedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *WeekSchedule) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for WeekSchedule: %T", src)
	}
	return json.Unmarshal(data, s)
}

// Bounds resolves the window's open and close instants on the given date.
func (w DayWindow) Bounds(date time.Time) (time.Time, time.Time, error) {
	open, err := atClock(date, w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window start: %w", err)
	}
	end, err := atClock(date, w.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window end: %w", err)
	}
	return open, end, nil
}

// Contains reports whether [start, end) lies entirely inside the window
// on start's calendar date.
func (w DayWindow) Contains(start, end time.Time) bool {
	if !w.Enabled {
		return false
	}
	open, windowEnd, err := w.Bounds(start)
	if err != nil {
		return false
	}
	return !start.Before(open) && !end.After(windowEnd)
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
