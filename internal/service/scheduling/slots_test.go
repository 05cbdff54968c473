package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/scheduling-api/internal/model"
)

// 2026-09-07 is a Monday.
var slotDate = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.Local)

func (e *testEnv) setAvailability(schedule model.WeekSchedule) {
	e.svc.repos.Professionals.(*fakeProfessionalRepo).professionals[e.professionalID].Availability = schedule
}

func (e *testEnv) addAppointment(start, end time.Time) {
	id := uuid.New()
	e.appointments.appointments[id] = &model.Appointment{
		Base:           model.Base{ID: id},
		ClinicID:       e.clinicID,
		PatientID:      e.patientID,
		ProfessionalID: e.professionalID,
		ServiceTypeID:  e.serviceTypeID,
		StartTime:      start,
		EndTime:        end,
		Status:         model.AppointmentStatusScheduled,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(slotDate.Year(), slotDate.Month(), slotDate.Day(), hour, minute, 0, 0, time.Local)
}

func TestAvailableSlotsSteppedEnumeration(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "12:00"))

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)

	// Starts step by 15 minutes; the last hour-long slot that still
	// fits before 12:00 starts at 11:00.
	require.Len(t, slots, 13)
	assert.Equal(t, at(8, 0), slots[0].SlotStart)
	assert.Equal(t, at(9, 0), slots[0].SlotEnd)
	assert.Equal(t, at(8, 15), slots[1].SlotStart)
	assert.Equal(t, at(11, 0), slots[12].SlotStart)
	assert.Equal(t, at(12, 0), slots[12].SlotEnd)

	for _, slot := range slots {
		assert.True(t, slot.IsAvailable)
	}
}

func TestAvailableSlotsFlagsOccupiedSlots(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "12:00"))
	env.addAppointment(at(9, 0), at(10, 0))

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 13)

	// Occupied slots stay in the sequence, flagged unavailable. An
	// hour-long slot collides with [09:00, 10:00) when it starts
	// strictly between 08:00 and 10:00.
	for _, slot := range slots {
		overlaps := slot.SlotStart.After(at(8, 0)) && slot.SlotStart.Before(at(10, 0))
		assert.Equal(t, !overlaps, slot.IsAvailable, "slot starting %s", slot.SlotStart.Format("15:04"))
	}
}

func TestAvailableSlotsBoundaryTouchStaysAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "12:00"))
	env.addAppointment(at(9, 0), at(10, 0))

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)

	for _, slot := range slots {
		if slot.SlotStart.Equal(at(8, 0)) || slot.SlotStart.Equal(at(10, 0)) {
			assert.True(t, slot.IsAvailable, "slot touching the appointment boundary should stay available")
		}
	}
}

func TestAvailableSlotsDisabledWeekday(t *testing.T) {
	env := newTestEnv(t)
	schedule := allWeek("08:00", "18:00")
	schedule["monday"] = model.DayWindow{Enabled: false}
	env.setAvailability(schedule)

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)

	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailableSlotsDefaultDuration(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "10:00"))

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, 0)
	require.NoError(t, err)

	// Default duration is an hour, so starts run 08:00 through 09:00.
	require.Len(t, slots, 5)
	assert.Equal(t, at(9, 0), slots[4].SlotStart)
}

func TestAvailableSlotsIgnoresCancelledAppointments(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "12:00"))
	env.addAppointment(at(9, 0), at(10, 0))
	for _, apt := range env.appointments.appointments {
		apt.Status = model.AppointmentStatusCancelled
	}

	slots, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)

	for _, slot := range slots {
		assert.True(t, slot.IsAvailable)
	}
}

func TestAvailableSlotsServesScheduleFromCache(t *testing.T) {
	env := newTestEnv(t)
	env.setAvailability(allWeek("08:00", "12:00"))

	first, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A narrower window written straight to storage is not observed
	// until the cache entry expires.
	env.setAvailability(allWeek("08:00", "09:00"))

	second, err := env.svc.AvailableSlots(context.Background(), env.professionalID, slotDate, time.Hour)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}
