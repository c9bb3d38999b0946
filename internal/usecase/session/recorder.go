package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/repositories"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/metrics"
	"github.com/johnquangdev/transcript-studio/pkg/stagecontext"
)

const auditWriteTimeout = 5 * time.Second

// StageRecorder logs, counts and optionally audits every collaborator call.
// The repository may be nil when the audit database is disabled.
type StageRecorder struct {
	repo      repositories.StageRunRepository
	providers map[entities.StageName]string
	logger    *zap.Logger
}

// NewStageRecorder creates a recorder; providers names the backend of each stage
func NewStageRecorder(repo repositories.StageRunRepository, providers map[entities.StageName]string, logger *zap.Logger) *StageRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageRecorder{repo: repo, providers: providers, logger: logger}
}

// Begin opens a run record for a call launched in generation
func (r *StageRecorder) Begin(sessionID uuid.UUID, stage entities.StageName, generation uint64, inputBytes int) *entities.StageRun {
	run := entities.NewStageRun(sessionID, stage, r.providers[stage], generation, inputBytes)
	r.logger.Info("stage.started",
		zap.String("session_id", sessionID.String()),
		zap.String("stage", string(stage)),
		zap.Uint64("generation", generation),
		zap.String("provider", run.Provider),
		zap.Int("input_bytes", inputBytes),
	)
	if r.repo != nil {
		r.write(func(ctx context.Context) error { return r.repo.Create(ctx, run) })
	}
	return run
}

// End closes the run. A discarded run finished after its session moved on.
func (r *StageRecorder) End(run *entities.StageRun, err error, discarded bool) {
	outcome := stagecontext.Classify(err)
	switch {
	case discarded:
		run.MarkAsDiscarded()
		outcome = stagecontext.OutcomeDiscarded
		metrics.RecordStaleResult(string(run.Stage))
	case err != nil:
		run.MarkAsFailed(errorCode(err))
		run.Metadata = failureMetadata(outcome)
	default:
		run.MarkAsSucceeded()
	}
	metrics.RecordStage(string(run.Stage), outcome, run.Duration().Seconds())

	fields := []zap.Field{
		zap.String("session_id", run.SessionID.String()),
		zap.String("stage", string(run.Stage)),
		zap.Uint64("generation", run.Generation),
		zap.String("outcome", outcome),
		zap.Duration("duration", run.Duration()),
	}
	if err != nil {
		r.logger.Warn("stage.finished", append(fields, zap.Error(err))...)
	} else {
		r.logger.Info("stage.finished", fields...)
	}

	if r.repo != nil {
		r.write(func(ctx context.Context) error { return r.repo.Finish(ctx, run) })
	}
}

// write runs an audit write detached from the request; failures are only logged
func (r *StageRecorder) write(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		r.logger.Warn("stage.audit_write_failed", zap.Error(err))
	}
}

func errorCode(err error) string {
	var appErr appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code.String()
	}
	return appErrors.ErrorCode_INTERNAL.String()
}

func failureMetadata(outcome string) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{"outcome": outcome})
	return datatypes.JSON(b)
}

// Runs returns the audit records of a session, oldest first; empty when auditing is off
func (r *StageRecorder) Runs(ctx context.Context, sessionID uuid.UUID) ([]*entities.StageRun, error) {
	if r.repo == nil {
		return []*entities.StageRun{}, nil
	}
	runs, err := r.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, appErrors.ErrDBQueryFailed("find stage runs", err)
	}
	return runs, nil
}

// Prune deletes audit records started before the cutoff
func (r *StageRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	if r.repo == nil {
		return 0, nil
	}
	n, err := r.repo.DeleteBefore(ctx, before)
	if err != nil {
		return 0, appErrors.ErrDBQueryFailed("delete stage runs", err)
	}
	if n > 0 {
		r.logger.Info("stage.audit_pruned", zap.Int64("deleted", n), zap.Time("before", before))
	}
	return n, nil
}

// RunRetention prunes records older than retention every interval until ctx is done
func (r *StageRecorder) RunRetention(ctx context.Context, retention, interval time.Duration) {
	if r.repo == nil || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Prune(ctx, time.Now().Add(-retention)); err != nil {
				r.logger.Warn("stage.audit_prune_failed", zap.Error(err))
			}
		}
	}
}
