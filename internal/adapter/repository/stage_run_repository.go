package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/repositories"
)

// stageRunRepository implements the StageRunRepository interface
type stageRunRepository struct {
	db *gorm.DB
}

// NewStageRunRepository creates a new stage run repository
func NewStageRunRepository(db *gorm.DB) repositories.StageRunRepository {
	return &stageRunRepository{db: db}
}

// Create inserts a started run
func (r *stageRunRepository) Create(ctx context.Context, run *entities.StageRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Finish stores the outcome columns of a run
func (r *stageRunRepository) Finish(ctx context.Context, run *entities.StageRun) error {
	return r.db.WithContext(ctx).
		Model(&entities.StageRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":      run.Status,
			"error_code":  run.ErrorCode,
			"metadata":    run.Metadata,
			"finished_at": run.FinishedAt,
			"duration_ms": run.DurationMs,
		}).Error
}

// FindBySessionID lists the runs of a session, oldest first
func (r *stageRunRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entities.StageRun, error) {
	var runs []*entities.StageRun
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteBefore removes runs started before the cutoff
func (r *stageRunRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ?", before).
		Delete(&entities.StageRun{})
	return result.RowsAffected, result.Error
}
