package scheduling

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
	"github.com/clinicore/scheduling-api/internal/service/audit"
	"github.com/clinicore/scheduling-api/internal/service/notification"
	"github.com/clinicore/scheduling-api/pkg/metrics"
)

// Config carries the tunables of the scheduling engine.
type Config struct {
	// SlotStep is the fixed increment between candidate slot starts,
	// independent of the requested slot duration.
	SlotStep time.Duration
	// DefaultSlotDuration is used when a slot query omits a duration.
	DefaultSlotDuration time.Duration
	// ScheduleCacheTTL bounds how long professional availability and
	// clinic hours are served from the in-process cache.
	ScheduleCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		SlotStep:            15 * time.Minute,
		DefaultSlotDuration: 60 * time.Minute,
		ScheduleCacheTTL:    5 * time.Minute,
	}
}

// Repositories bundles the data-access ports the engine operates on.
// Only Appointments is written to; the rest are read-only collaborators.
type Repositories struct {
	Appointments  repository.AppointmentRepository
	Patients      repository.PatientRepository
	Professionals repository.ProfessionalRepository
	ServiceTypes  repository.ServiceTypeRepository
	Clinics       repository.ClinicRepository
}

type Service struct {
	repos         Repositories
	auditor       *audit.Service
	notifier      *notification.Service
	metrics       *metrics.Metrics
	cfg           Config
	scheduleCache *cache.Cache
}

func NewService(repos Repositories, auditor *audit.Service, notifier *notification.Service, m *metrics.Metrics, cfg Config) *Service {
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = DefaultConfig().SlotStep
	}
	if cfg.DefaultSlotDuration <= 0 {
		cfg.DefaultSlotDuration = DefaultConfig().DefaultSlotDuration
	}
	if cfg.ScheduleCacheTTL <= 0 {
		cfg.ScheduleCacheTTL = DefaultConfig().ScheduleCacheTTL
	}

	return &Service{
		repos:         repos,
		auditor:       auditor,
		notifier:      notifier,
		metrics:       m,
		cfg:           cfg,
		scheduleCache: cache.New(cfg.ScheduleCacheTTL, 2*cfg.ScheduleCacheTTL),
	}
}

// Book validates a booking request and inserts the appointment. The
// checks run fail-fast in a fixed order so that each failure mode maps
// to a stable error code, and the final write happens inside a
// serializable transaction so a conflicting concurrent booking cannot
// slip between check and insert.
func (s *Service) Book(ctx context.Context, req *model.CreateAppointmentRequest) *Result {
	if req.ClinicID == uuid.Nil {
		return s.bookFailed(ErrCodeInvalidClinic, "clinic id is required")
	}
	if req.PatientID == uuid.Nil {
		return s.bookFailed(ErrCodeInvalidPatient, "patient id is required")
	}
	if req.ProfessionalID == uuid.Nil {
		return s.bookFailed(ErrCodeInvalidProfessional, "professional id is required")
	}
	if req.ServiceTypeID == uuid.Nil {
		return s.bookFailed(ErrCodeInvalidService, "service type id is required")
	}

	if req.StartTime.IsZero() {
		return s.bookFailed(ErrCodeInvalidStartTime, "start time is required")
	}
	if !req.StartTime.After(time.Now()) {
		return s.bookFailed(ErrCodeInvalidTimePast, "start time must be in the future")
	}

	serviceType, err := s.repos.ServiceTypes.Get(ctx, req.ServiceTypeID)
	if err == repository.ErrNotFound {
		return s.bookFailed(ErrCodeServiceNotFound, "service type not found")
	}
	if err != nil {
		return s.bookUnexpected(err)
	}

	endTime := req.StartTime.Add(serviceType.Duration())
	if req.EndTime != nil {
		if !req.EndTime.After(req.StartTime) {
			return s.bookFailed(ErrCodeInvalidEndTime, "end time must be after start time")
		}
		endTime = *req.EndTime
	}

	patient, err := s.repos.Patients.Get(ctx, req.PatientID)
	if err == repository.ErrNotFound {
		return s.bookFailed(ErrCodePatientClinicMismatch, "patient does not belong to the clinic")
	}
	if err != nil {
		return s.bookUnexpected(err)
	}
	if patient.ClinicID != req.ClinicID {
		return s.bookFailed(ErrCodePatientClinicMismatch, "patient does not belong to the clinic")
	}

	professional, err := s.repos.Professionals.Get(ctx, req.ProfessionalID)
	if err == repository.ErrNotFound {
		return s.bookFailed(ErrCodeProfessionalClinicMismatch, "professional does not belong to the clinic")
	}
	if err != nil {
		return s.bookUnexpected(err)
	}
	if professional.ClinicID != req.ClinicID {
		return s.bookFailed(ErrCodeProfessionalClinicMismatch, "professional does not belong to the clinic")
	}

	if serviceType.ClinicID != req.ClinicID {
		return s.bookFailed(ErrCodeServiceClinicMismatch, "service type does not belong to the clinic")
	}

	hasConflict, err := s.repos.Appointments.HasConflict(ctx, req.ProfessionalID, req.StartTime, endTime, nil)
	if err != nil {
		return s.bookUnexpected(err)
	}
	if hasConflict {
		return s.bookFailed(ErrCodeAppointmentConflict, "professional already has an appointment in this interval")
	}

	clinic, err := s.repos.Clinics.Get(ctx, req.ClinicID)
	if err == repository.ErrNotFound {
		return s.bookFailed(ErrCodeInvalidClinic, "clinic not found")
	}
	if err != nil {
		return s.bookUnexpected(err)
	}
	if !clinic.BusinessHours.WindowFor(req.StartTime.Weekday()).Contains(req.StartTime, endTime) {
		return s.bookFailed(ErrCodeOutsideBusinessHours, "appointment falls outside clinic business hours")
	}

	if !professional.Availability.WindowFor(req.StartTime.Weekday()).Contains(req.StartTime, endTime) {
		return s.bookFailed(ErrCodeProfessionalUnavailable, "professional is not available in this interval")
	}

	apt := &model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       req.ClinicID,
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		ServiceTypeID:  req.ServiceTypeID,
		StartTime:      req.StartTime,
		EndTime:        endTime,
		Status:         model.AppointmentStatusScheduled,
		Notes:          req.Notes,
		InternalNotes:  req.InternalNotes,
		ChangeReason:   req.ChangeReason,
		CreatedBy:      req.CreatedBy,
	}

	evt := s.outboxEvent(model.EventAppointmentCreated, apt)
	err = s.repos.Appointments.CreateWithEvent(ctx, apt, evt)
	if err == repository.ErrConflict {
		return s.bookFailed(ErrCodeAppointmentConflict, "professional already has an appointment in this interval")
	}
	if err != nil {
		return s.bookUnexpected(err)
	}

	s.auditLog(ctx, req.CreatedBy, apt, model.AuditActionCreate, req.ChangeReason)

	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, apt, patient); err != nil {
			log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("booking notification failed")
		}
	}

	s.metrics.BookingsTotal.WithLabelValues("success").Inc()
	return booked(apt.ID)
}

// Update applies a merge-patch to an existing appointment. The
// temporal validation chain is re-run only when the professional or
// the interval changes; a pure status or notes update skips it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) *Result {
	apt, err := s.repos.Appointments.Get(ctx, id)
	if err == repository.ErrNotFound {
		return s.updateFailed(ErrCodeAppointmentNotFound, "appointment not found")
	}
	if err != nil {
		return s.updateUnexpected(err)
	}

	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return s.updateFailed(ErrCodeInvalidStatus, "unknown appointment status")
	}

	updated := *apt
	if req.PatientID != nil {
		updated.PatientID = *req.PatientID
	}
	if req.ProfessionalID != nil {
		updated.ProfessionalID = *req.ProfessionalID
	}
	if req.ServiceTypeID != nil {
		updated.ServiceTypeID = *req.ServiceTypeID
	}
	if req.StartTime != nil {
		updated.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		updated.EndTime = *req.EndTime
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if req.InternalNotes != nil {
		updated.InternalNotes = req.InternalNotes
	}
	if req.ChangeReason != nil {
		updated.ChangeReason = req.ChangeReason
	}
	updated.UpdatedBy = req.UpdatedBy

	if req.TouchesSchedule() {
		if req.StartTime != nil && !req.StartTime.After(time.Now()) {
			return s.updateFailed(ErrCodeInvalidTimePast, "start time must be in the future")
		}
		if !updated.EndTime.After(updated.StartTime) {
			return s.updateFailed(ErrCodeInvalidEndTime, "end time must be after start time")
		}

		hasConflict, err := s.repos.Appointments.HasConflict(ctx, updated.ProfessionalID, updated.StartTime, updated.EndTime, &id)
		if err != nil {
			return s.updateUnexpected(err)
		}
		if hasConflict {
			return s.updateFailed(ErrCodeAppointmentConflict, "professional already has an appointment in this interval")
		}

		clinic, err := s.repos.Clinics.Get(ctx, updated.ClinicID)
		if err != nil {
			return s.updateUnexpected(err)
		}
		if !clinic.BusinessHours.WindowFor(updated.StartTime.Weekday()).Contains(updated.StartTime, updated.EndTime) {
			return s.updateFailed(ErrCodeOutsideBusinessHours, "appointment falls outside clinic business hours")
		}

		professional, err := s.repos.Professionals.Get(ctx, updated.ProfessionalID)
		if err == repository.ErrNotFound {
			return s.updateFailed(ErrCodeProfessionalUnavailable, "professional not found")
		}
		if err != nil {
			return s.updateUnexpected(err)
		}
		if !professional.Availability.WindowFor(updated.StartTime.Weekday()).Contains(updated.StartTime, updated.EndTime) {
			return s.updateFailed(ErrCodeProfessionalUnavailable, "professional is not available in this interval")
		}
	}

	evt := s.outboxEvent(model.EventAppointmentUpdated, &updated)
	err = s.repos.Appointments.UpdateWithEvent(ctx, &updated, evt)
	if err == repository.ErrNotFound {
		return s.updateFailed(ErrCodeAppointmentNotFound, "appointment not found")
	}
	if err == repository.ErrConflict {
		return s.updateFailed(ErrCodeAppointmentConflict, "professional already has an appointment in this interval")
	}
	if err != nil {
		return s.updateUnexpected(err)
	}

	s.auditLog(ctx, req.UpdatedBy, &updated, model.AuditActionUpdate, req.ChangeReason)

	if s.notifier != nil && req.Status != nil && *req.Status == model.AppointmentStatusCancelled && apt.Status != model.AppointmentStatusCancelled {
		s.notifyCancellation(ctx, &updated, reasonOrDefault(req.ChangeReason))
	}

	s.metrics.UpdatesTotal.WithLabelValues("success").Inc()
	return succeeded()
}

// Delete soft-deletes an appointment. The row stays in storage for
// audit but is excluded from conflict checks and default listings.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, req *model.DeleteAppointmentRequest) *Result {
	apt, err := s.repos.Appointments.Get(ctx, id)
	if err == repository.ErrNotFound {
		return s.deleteFailed(ErrCodeAppointmentNotFound, "appointment not found")
	}
	if err != nil {
		return s.deleteUnexpected(err)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return s.deleteFailed(ErrCodeInvalidReason, "deletion reason is required")
	}

	apt.DeletedReason = &reason
	apt.DeletedBy = req.DeletedBy

	evt := s.outboxEvent(model.EventAppointmentDeleted, apt)
	err = s.repos.Appointments.SoftDeleteWithEvent(ctx, apt, evt)
	if err == repository.ErrNotFound {
		return s.deleteFailed(ErrCodeAppointmentNotFound, "appointment not found")
	}
	if err != nil {
		return s.deleteUnexpected(err)
	}

	s.auditLog(ctx, req.DeletedBy, apt, model.AuditActionDelete, &reason)

	if s.notifier != nil {
		s.notifyCancellation(ctx, apt, reason)
	}

	s.metrics.DeletesTotal.WithLabelValues("success").Inc()
	return succeeded()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repos.Appointments.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repos.Appointments.List(ctx, filters)
}

func (s *Service) outboxEvent(eventType string, apt *model.Appointment) *model.OutboxEvent {
	payload, err := json.Marshal(apt)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return nil
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
}

func (s *Service) auditLog(ctx context.Context, actorID *uuid.UUID, apt *model.Appointment, action string, reason *string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Log(ctx, actorID, apt.ClinicID, action, model.AuditEntityAppointment, apt.ID, &audit.LogOptions{
		Changes: apt,
		Reason:  reason,
	})
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("audit log failed")
	}
}

func (s *Service) notifyCancellation(ctx context.Context, apt *model.Appointment, reason string) {
	patient, err := s.repos.Patients.Get(ctx, apt.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to load patient for cancellation notification")
		return
	}
	if err := s.notifier.AppointmentCancelled(ctx, apt, patient, reason); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("cancellation notification failed")
	}
}

func (s *Service) bookFailed(code ErrorCode, message string) *Result {
	s.metrics.BookingsTotal.WithLabelValues(string(code)).Inc()
	return failed(code, message)
}

func (s *Service) bookUnexpected(err error) *Result {
	s.metrics.BookingsTotal.WithLabelValues(string(ErrCodeUnexpected)).Inc()
	log.Error().Err(err).Msg("booking failed unexpectedly")
	return failed(ErrCodeUnexpected, err.Error())
}

func (s *Service) updateFailed(code ErrorCode, message string) *Result {
	s.metrics.UpdatesTotal.WithLabelValues(string(code)).Inc()
	return failed(code, message)
}

func (s *Service) updateUnexpected(err error) *Result {
	s.metrics.UpdatesTotal.WithLabelValues(string(ErrCodeUnexpected)).Inc()
	log.Error().Err(err).Msg("appointment update failed unexpectedly")
	return failed(ErrCodeUnexpected, err.Error())
}

func (s *Service) deleteFailed(code ErrorCode, message string) *Result {
	s.metrics.DeletesTotal.WithLabelValues(string(code)).Inc()
	return failed(code, message)
}

func (s *Service) deleteUnexpected(err error) *Result {
	s.metrics.DeletesTotal.WithLabelValues(string(ErrCodeUnexpected)).Inc()
	log.Error().Err(err).Msg("appointment delete failed unexpectedly")
	return failed(ErrCodeUnexpected, err.Error())
}

func reasonOrDefault(reason *string) string {
	if reason != nil {
		return *reason
	}
	return "appointment cancelled"
}
