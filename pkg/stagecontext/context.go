package stagecontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keySessionID      KeyContext = "session_id"
	keyStage          KeyContext = "stage"
	keyGeneration     KeyContext = "generation"
	keyStageStartTime KeyContext = "stage_start_time"
)

// Outcome labels used for logs and metrics
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
	OutcomeDiscarded = "discarded"
)

// StageMetadata holds metadata for one collaborator call
type StageMetadata struct {
	SessionID  uuid.UUID
	Stage      string
	Generation uint64
	StartTime  time.Time
}

// StageBegin derives the context for a collaborator call with metadata and timeout.
// A zero timeout keeps the parent deadline.
func StageBegin(parentCtx context.Context, sessionID uuid.UUID, stage string, generation uint64, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}

	ctx = context.WithValue(ctx, keySessionID, sessionID)
	ctx = context.WithValue(ctx, keyStage, stage)
	ctx = context.WithValue(ctx, keyGeneration, generation)
	ctx = context.WithValue(ctx, keyStageStartTime, time.Now())

	return ctx, cancel
}

// StageEnd runs fn exactly once with panic recovery. Stages are never retried here;
// the user repeats the action instead.
func StageEnd(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before stage execution: %w", ctx.Err())
	}
	return fn(ctx)
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keySessionID).(uuid.UUID)
	return id, ok
}

// GetStage extracts stage name from context
func GetStage(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(keyStage).(string)
	return stage, ok
}

// GetGeneration extracts the generation the stage was launched in
func GetGeneration(ctx context.Context) uint64 {
	gen, _ := ctx.Value(keyGeneration).(uint64)
	return gen
}

// GetStageStartTime extracts stage start time from context
func GetStageStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyStageStartTime).(time.Time)
	return startTime, ok
}

// Elapsed returns the time since StageBegin, or zero without metadata
func Elapsed(ctx context.Context) time.Duration {
	start, ok := GetStageStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// GetStageMetadata extracts all stage metadata from context
func GetStageMetadata(ctx context.Context) *StageMetadata {
	id, _ := GetSessionID(ctx)
	stage, _ := GetStage(ctx)
	startTime, _ := GetStageStartTime(ctx)

	return &StageMetadata{
		SessionID:  id,
		Stage:      stage,
		Generation: GetGeneration(ctx),
		StartTime:  startTime,
	}
}

// Classify maps a stage result to its outcome label
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
