package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

// StageRunRepository persists the operational audit log of collaborator calls
type StageRunRepository interface {
	Create(ctx context.Context, run *entities.StageRun) error
	Finish(ctx context.Context, run *entities.StageRun) error
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entities.StageRun, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
