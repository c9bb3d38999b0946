package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StageRunStatus represents the outcome of one collaborator call
type StageRunStatus string

const (
	StageRunStatusRunning   StageRunStatus = "running"
	StageRunStatusSucceeded StageRunStatus = "succeeded"
	StageRunStatusFailed    StageRunStatus = "failed"
	StageRunStatusDiscarded StageRunStatus = "discarded" // finished after the session moved on
)

// StageName identifies the collaborator role exercised by a run
type StageName string

const (
	StageNameTranscription StageName = "transcription"
	StageNameNameInference StageName = "name_inference"
	StageNameSummary       StageName = "summary"
	StageNameChat          StageName = "chat"
)

// StageRun is an operational audit record of a collaborator call.
// It never stores transcript or media content.
type StageRun struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	SessionID  uuid.UUID      `json:"session_id" gorm:"type:uuid;not null;index"`
	Stage      StageName      `json:"stage" gorm:"type:varchar(50);not null;index"`
	Status     StageRunStatus `json:"status" gorm:"type:varchar(50);not null;index"`
	Provider   string         `json:"provider" gorm:"type:varchar(50)"`
	Generation uint64         `json:"generation" gorm:"type:bigint"`
	InputBytes int            `json:"input_bytes" gorm:"type:integer"`
	ErrorCode  *string        `json:"error_code,omitempty" gorm:"type:varchar(100)"`
	Metadata   datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	StartedAt  time.Time  `json:"started_at" gorm:"type:timestamp;not null"`
	FinishedAt *time.Time `json:"finished_at,omitempty" gorm:"type:timestamp"`
	DurationMs int64      `json:"duration_ms" gorm:"type:bigint"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName pins the table created by the migrations
func (StageRun) TableName() string {
	return "stage_runs"
}

// NewStageRun starts a run record
func NewStageRun(sessionID uuid.UUID, stage StageName, provider string, generation uint64, inputBytes int) *StageRun {
	return &StageRun{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Stage:      stage,
		Status:     StageRunStatusRunning,
		Provider:   provider,
		Generation: generation,
		InputBytes: inputBytes,
		StartedAt:  time.Now().UTC(),
	}
}

// MarkAsSucceeded closes the run successfully
func (r *StageRun) MarkAsSucceeded() {
	r.finish(StageRunStatusSucceeded)
}

// MarkAsFailed closes the run with an error code
func (r *StageRun) MarkAsFailed(code string) {
	r.ErrorCode = &code
	r.finish(StageRunStatusFailed)
}

// MarkAsDiscarded closes a run whose result arrived for a stale generation
func (r *StageRun) MarkAsDiscarded() {
	r.finish(StageRunStatusDiscarded)
}

// Duration returns the elapsed time of a finished run
func (r *StageRun) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

func (r *StageRun) finish(status StageRunStatus) {
	now := time.Now().UTC()
	r.Status = status
	r.FinishedAt = &now
	r.DurationMs = now.Sub(r.StartedAt).Milliseconds()
}
