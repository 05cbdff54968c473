package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
)

const appointmentColumns = `
	id, clinic_id, patient_id, professional_id, service_type_id,
	start_time, end_time, status, notes, internal_notes, change_reason,
	created_by, updated_by, deleted_at, deleted_reason, deleted_by,
	created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argCount := 1

	if filters.ClinicID != uuid.Nil {
		query += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, filters.ClinicID)
		argCount++
	}
	if filters.ProfessionalID != uuid.Nil {
		query += fmt.Sprintf(" AND professional_id = $%d", argCount)
		args = append(args, filters.ProfessionalID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// HasConflict checks the half-open overlap rule: [a,b) and [c,d)
// collide iff a < d AND c < b, so a booking that starts exactly when
// another ends is allowed.
func (r *appointmentRepository) HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE professional_id = $1
			AND deleted_at IS NULL
			AND status != 'cancelled'
			AND start_time < $3
			AND $2 < end_time
	`
	args := []interface{}{professionalID, start, end}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	if err := r.db.GetContext(ctx, &hasConflict, query, args...); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) ListForProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE professional_id = $1
		AND deleted_at IS NULL
		AND status != 'cancelled'
		AND start_time < $3
		AND end_time > $2
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, professionalID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list professional appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CreateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, professional_id, service_type_id,
			start_time, end_time, status, notes, internal_notes, change_reason,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.ClinicID,
			apt.PatientID,
			apt.ProfessionalID,
			apt.ServiceTypeID,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.Notes,
			apt.InternalNotes,
			apt.ChangeReason,
			apt.CreatedBy,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		if translated := translateWriteError(err); translated == repository.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	query := `
		UPDATE appointments
		SET patient_id = $1, professional_id = $2, service_type_id = $3,
			start_time = $4, end_time = $5, status = $6,
			notes = $7, internal_notes = $8, change_reason = $9,
			updated_by = $10, updated_at = $11
		WHERE id = $12 AND deleted_at IS NULL
	`
	apt.UpdatedAt = time.Now()

	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			apt.PatientID,
			apt.ProfessionalID,
			apt.ServiceTypeID,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.Notes,
			apt.InternalNotes,
			apt.ChangeReason,
			apt.UpdatedBy,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return insertOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		if translated := translateWriteError(err); translated == repository.ErrConflict || translated == repository.ErrNotFound {
			return translated
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) SoftDeleteWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	query := `
		UPDATE appointments
		SET deleted_at = $1, deleted_reason = $2, deleted_by = $3, updated_at = $1
		WHERE id = $4 AND deleted_at IS NULL
	`
	now := time.Now()
	apt.DeletedAt = &now
	apt.UpdatedAt = now

	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, now, apt.DeletedReason, apt.DeletedBy, apt.ID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return insertOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	evt.ID = uuid.New()
	evt.CreatedAt = time.Now()
	evt.UpdatedAt = evt.CreatedAt
	evt.Status = string(model.OutboxStatusPending)

	_, err := tx.ExecContext(ctx, query,
		evt.ID,
		evt.EventType,
		evt.Payload,
		evt.Status,
		evt.CreatedAt,
		evt.UpdatedAt,
	)
	return err
}
