package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/scheduling-api/internal/model"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when the storage layer rejects a write because
// it would overlap another active appointment for the same professional.
// This backs the procedural conflict check: the exclusion constraint and
// serializable isolation close the check-then-act race.
var ErrConflict = errors.New("appointment conflict")

// All repository interfaces in one file
type (
	// AppointmentRepository persists appointments. The write methods run
	// the mutation and its outbox event in a single serializable
	// transaction.
	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
		ListForProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		CreateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		SoftDeleteWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
	}

	// PatientRepository is read-only to the scheduling engine.
	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	ProfessionalRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	}

	ServiceTypeRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceType, error)
	}

	ClinicRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityID uuid.UUID) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		MoveToDeadLetter(ctx context.Context, tx *sql.Tx, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
