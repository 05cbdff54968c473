package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
)

func (r *serviceTypeRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceType, error) {
	query := `
		SELECT id, clinic_id, name, description, duration_minutes, price,
			   deleted_at, created_at, updated_at
		FROM service_types
		WHERE id = $1 AND deleted_at IS NULL
	`
	var serviceType model.ServiceType
	err := r.db.GetContext(ctx, &serviceType, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service type: %w", err)
	}
	return &serviceType, nil
}
