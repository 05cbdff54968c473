package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Changes  interface{}
	Metadata interface{}
	Reason   *string
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, actorID *uuid.UUID, clinicID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	var changes, metadata json.RawMessage
	var reason *string
	var err error

	if opts != nil {
		if opts.Changes != nil {
			changes, err = json.Marshal(opts.Changes)
			if err != nil {
				return err
			}
		}
		if opts.Metadata != nil {
			metadata, err = json.Marshal(opts.Metadata)
			if err != nil {
				return err
			}
		}
		reason = opts.Reason
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		ClinicID:   clinicID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Metadata:   metadata,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}

	return s.repo.Create(ctx, entry)
}

func (s *Service) History(ctx context.Context, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityID)
}

func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().Add(-retention))
}
