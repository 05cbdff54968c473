package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
)

func (r *professionalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	query := `
		SELECT id, clinic_id, full_name, email, specialty, availability,
			   deleted_at, created_at, updated_at
		FROM professionals
		WHERE id = $1 AND deleted_at IS NULL
	`
	var professional model.Professional
	err := r.db.GetContext(ctx, &professional, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	return &professional, nil
}
