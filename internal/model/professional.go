package model

import (
	"github.com/google/uuid"
)

type Professional struct {
	Base
	ClinicID     uuid.UUID    `db:"clinic_id" json:"clinic_id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Email        *string      `db:"email" json:"email,omitempty"`
	Specialty    *string      `db:"specialty" json:"specialty,omitempty"`
	Availability WeekSchedule `db:"availability" json:"availability"`
}
