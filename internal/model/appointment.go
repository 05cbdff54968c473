package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	Base
	ClinicID       uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	PatientID      uuid.UUID         `db:"patient_id" json:"patient_id"`
	ProfessionalID uuid.UUID         `db:"professional_id" json:"professional_id"`
	ServiceTypeID  uuid.UUID         `db:"service_type_id" json:"service_type_id"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	Notes          *string           `db:"notes" json:"notes,omitempty"`
	InternalNotes  *string           `db:"internal_notes" json:"internal_notes,omitempty"`
	ChangeReason   *string           `db:"change_reason" json:"change_reason,omitempty"`
	CreatedBy      *uuid.UUID        `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy      *uuid.UUID        `db:"updated_by" json:"updated_by,omitempty"`
	DeletedReason  *string           `db:"deleted_reason" json:"deleted_reason,omitempty"`
	DeletedBy      *uuid.UUID        `db:"deleted_by" json:"deleted_by,omitempty"`
}

// Overlaps reports whether the appointment's half-open interval
// [start_time, end_time) intersects [start, end). Touching boundaries
// do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}

type CreateAppointmentRequest struct {
	ClinicID       uuid.UUID  `json:"clinic_id" binding:"required"`
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	ProfessionalID uuid.UUID  `json:"professional_id" binding:"required"`
	ServiceTypeID  uuid.UUID  `json:"service_type_id" binding:"required"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        *time.Time `json:"end_time"`
	Notes          *string    `json:"notes" binding:"omitempty,max=2000"`
	InternalNotes  *string    `json:"internal_notes" binding:"omitempty,max=2000"`
	CreatedBy      *uuid.UUID `json:"created_by"`
	ChangeReason   *string    `json:"change_reason"`
}

type UpdateAppointmentRequest struct {
	PatientID      *uuid.UUID         `json:"patient_id"`
	ProfessionalID *uuid.UUID         `json:"professional_id"`
	ServiceTypeID  *uuid.UUID         `json:"service_type_id"`
	StartTime      *time.Time         `json:"start_time"`
	EndTime        *time.Time         `json:"end_time"`
	Status         *AppointmentStatus `json:"status"`
	Notes          *string            `json:"notes"`
	InternalNotes  *string            `json:"internal_notes"`
	UpdatedBy      *uuid.UUID         `json:"updated_by"`
	ChangeReason   *string            `json:"change_reason"`
}

// TouchesSchedule reports whether the patch changes any field that
// requires the temporal validation chain to be re-run.
func (r *UpdateAppointmentRequest) TouchesSchedule() bool {
	return r.ProfessionalID != nil || r.StartTime != nil || r.EndTime != nil
}

type DeleteAppointmentRequest struct {
	Reason    string     `json:"reason" binding:"required"`
	DeletedBy *uuid.UUID `json:"deleted_by"`
}

// Slot is one candidate interval produced by the slot enumerator.
// Slots that collide with an existing appointment are still emitted,
// flagged unavailable.
type Slot struct {
	SlotStart   time.Time `json:"slot_start"`
	SlotEnd     time.Time `json:"slot_end"`
	IsAvailable bool      `json:"is_available"`
}

type AppointmentFilters struct {
	ClinicID       uuid.UUID
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	Status         AppointmentStatus
	StartDate      time.Time
	EndDate        time.Time
}
