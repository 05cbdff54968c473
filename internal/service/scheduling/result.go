package scheduling

import (
	"github.com/google/uuid"
)

// ErrorCode identifies a validation failure. The set is closed: every
// failure an orchestrator can produce maps to exactly one code, and
// anything unanticipated becomes ErrCodeUnexpected.
type ErrorCode string

const (
	ErrCodeInvalidClinic              ErrorCode = "INVALID_CLINIC"
	ErrCodeInvalidPatient             ErrorCode = "INVALID_PATIENT"
	ErrCodeInvalidProfessional        ErrorCode = "INVALID_PROFESSIONAL"
	ErrCodeInvalidService             ErrorCode = "INVALID_SERVICE"
	ErrCodeInvalidStartTime           ErrorCode = "INVALID_START_TIME"
	ErrCodeInvalidTimePast            ErrorCode = "INVALID_TIME_PAST"
	ErrCodeServiceNotFound            ErrorCode = "SERVICE_NOT_FOUND"
	ErrCodeInvalidEndTime             ErrorCode = "INVALID_END_TIME"
	ErrCodePatientClinicMismatch      ErrorCode = "PATIENT_CLINIC_MISMATCH"
	ErrCodeProfessionalClinicMismatch ErrorCode = "PROFESSIONAL_CLINIC_MISMATCH"
	ErrCodeServiceClinicMismatch      ErrorCode = "SERVICE_CLINIC_MISMATCH"
	ErrCodeAppointmentConflict        ErrorCode = "APPOINTMENT_CONFLICT"
	ErrCodeOutsideBusinessHours       ErrorCode = "OUTSIDE_BUSINESS_HOURS"
	ErrCodeProfessionalUnavailable    ErrorCode = "PROFESSIONAL_UNAVAILABLE"
	ErrCodeAppointmentNotFound        ErrorCode = "APPOINTMENT_NOT_FOUND"
	ErrCodeInvalidStatus              ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidReason              ErrorCode = "INVALID_REASON"
	ErrCodeUnexpected                 ErrorCode = "UNEXPECTED_ERROR"
)

// Result is the structured outcome of a booking, update or delete.
// Validation failures never surface as Go errors; callers always get
// a Result.
type Result struct {
	Success       bool       `json:"success"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	ErrorCode     ErrorCode  `json:"error_code,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

func booked(id uuid.UUID) *Result {
	return &Result{Success: true, AppointmentID: &id}
}

func succeeded() *Result {
	return &Result{Success: true}
}

func failed(code ErrorCode, message string) *Result {
	return &Result{Success: false, ErrorCode: code, ErrorMessage: message}
}
