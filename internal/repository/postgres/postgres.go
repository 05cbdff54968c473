package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/scheduling-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type professionalRepository struct {
	BaseRepository
}

type serviceTypeRepository struct {
	BaseRepository
}

type clinicRepository struct {
	BaseRepository
}

type auditRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewProfessionalRepository(db *sqlx.DB) repository.ProfessionalRepository {
	return &professionalRepository{NewBaseRepository(db)}
}

func NewServiceTypeRepository(db *sqlx.DB) repository.ServiceTypeRepository {
	return &serviceTypeRepository{NewBaseRepository(db)}
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{NewBaseRepository(db)}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}
