package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicore/scheduling-api/internal/model"
)

// AvailableSlots enumerates candidate slots for one professional on one
// calendar date. Starting at the professional's window open time, the
// start steps forward in fixed SlotStep increments; a slot is emitted
// for every step whose end still fits inside the window. Slots that
// collide with an existing appointment are included with IsAvailable
// false, so the caller decides whether to filter.
func (s *Service) AvailableSlots(ctx context.Context, professionalID uuid.UUID, date time.Time, duration time.Duration) ([]model.Slot, error) {
	timer := prometheus.NewTimer(s.metrics.SlotQueryLatency)
	defer timer.ObserveDuration()
	s.metrics.SlotQueriesTotal.Inc()

	if duration <= 0 {
		duration = s.cfg.DefaultSlotDuration
	}

	professional, err := s.professionalSchedule(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	window := professional.Availability.WindowFor(date.Weekday())
	if !window.Enabled {
		return []model.Slot{}, nil
	}

	open, windowEnd, err := window.Bounds(date)
	if err != nil {
		return nil, err
	}

	appointments, err := s.repos.Appointments.ListForProfessional(ctx, professionalID, open, windowEnd)
	if err != nil {
		return nil, err
	}

	slots := make([]model.Slot, 0)
	for start := open; !start.Add(duration).After(windowEnd); start = start.Add(s.cfg.SlotStep) {
		end := start.Add(duration)
		available := true
		for _, apt := range appointments {
			if apt.Overlaps(start, end) {
				available = false
				break
			}
		}
		slots = append(slots, model.Slot{
			SlotStart:   start,
			SlotEnd:     end,
			IsAvailable: available,
		})
	}
	return slots, nil
}

// professionalSchedule resolves a professional through the short-lived
// in-process cache. Slot queries hammer the same professionals, and the
// availability config changes rarely.
func (s *Service) professionalSchedule(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	key := id.String()
	if cached, ok := s.scheduleCache.Get(key); ok {
		return cached.(*model.Professional), nil
	}

	professional, err := s.repos.Professionals.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.scheduleCache.SetDefault(key, professional)
	return professional, nil
}
