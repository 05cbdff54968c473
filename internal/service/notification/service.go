package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/clinicore/scheduling-api/internal/email"
	"github.com/clinicore/scheduling-api/internal/model"
)

// Service sends patient-facing notifications about appointments.
// Delivery is best-effort: scheduling outcomes never depend on it.
type Service struct {
	sender email.Sender
}

func NewService(sender email.Sender) *Service {
	return &Service{sender: sender}
}

func (s *Service) AppointmentBooked(ctx context.Context, apt *model.Appointment, patient *model.Patient) error {
	if patient.Email == nil {
		log.Debug().Str("patient_id", patient.ID.String()).Msg("patient has no email, skipping booking notification")
		return nil
	}

	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment has been booked for %s until %s.\n",
		patient.FullName,
		apt.StartTime.Format("Mon, 02 Jan 2006 15:04"),
		apt.EndTime.Format("15:04"),
	)

	if err := s.sender.Send(ctx, *patient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send booking notification: %w", err)
	}
	return nil
}

func (s *Service) AppointmentCancelled(ctx context.Context, apt *model.Appointment, patient *model.Patient, reason string) error {
	if patient.Email == nil {
		log.Debug().Str("patient_id", patient.ID.String()).Msg("patient has no email, skipping cancellation notification")
		return nil
	}

	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment scheduled for %s has been cancelled.\nReason: %s\n",
		patient.FullName,
		apt.StartTime.Format("Mon, 02 Jan 2006 15:04"),
		reason,
	)

	if err := s.sender.Send(ctx, *patient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send cancellation notification: %w", err)
	}
	return nil
}
