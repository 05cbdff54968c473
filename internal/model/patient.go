package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	ClinicID  uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	FullName  string     `db:"full_name" json:"full_name"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
}
