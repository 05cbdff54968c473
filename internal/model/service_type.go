package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceType struct {
	Base
	ClinicID        uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           *float64  `db:"price" json:"price,omitempty"`
}

// Duration returns the configured appointment length.
func (s *ServiceType) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
