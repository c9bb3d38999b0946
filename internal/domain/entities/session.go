package entities

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStage is the coarse position of a session in the transcription pipeline
type PipelineStage string

const (
	StageIdle           PipelineStage = "idle"
	StageFileSelected   PipelineStage = "file_selected"
	StageTranscribing   PipelineStage = "transcribing"
	StageInferringNames PipelineStage = "inferring_names"
	StageReady          PipelineStage = "ready"
	StageSummarizing    PipelineStage = "summarizing"
	StageSummaryReady   PipelineStage = "summary_ready"
)

// Session is the consolidated state of one editing workspace.
// DerivedTranscript is always ApplyNames(RawTranscript, Assignments).
type Session struct {
	ID uuid.UUID

	File *MediaFile

	RawTranscript     *string
	DerivedTranscript *string
	SpeakerIDs        []string
	Assignments       SpeakerAssignments
	NameStatus        NameSuggestionStatus

	Summary *string
	Alert   *Alert
	Chat    []ChatTurn

	Sections SectionState

	Transcribing bool
	Summarizing  bool
	Chatting     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an idle session
func NewSession() *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	s.Clear()
	s.UpdatedAt = now
	return s
}

// Clear resets every field except identity back to its initial value
func (s *Session) Clear() {
	s.File = nil
	s.ClearTranscript()
	s.Alert = nil
	s.Sections = NewSectionState()
	s.Transcribing = false
	s.Summarizing = false
	s.Chatting = false
	s.Touch()
}

// ClearTranscript drops transcript, speaker, summary and chat state
func (s *Session) ClearTranscript() {
	s.RawTranscript = nil
	s.DerivedTranscript = nil
	s.SpeakerIDs = []string{}
	s.Assignments = SpeakerAssignments{}
	s.NameStatus = NameSuggestionIdle
	s.Summary = nil
	s.Chat = []ChatTurn{}
}

// Touch updates the modification time
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Stage derives the pipeline position from the session fields
func (s *Session) Stage() PipelineStage {
	switch {
	case s.Transcribing:
		return StageTranscribing
	case s.NameStatus == NameSuggestionPending:
		return StageInferringNames
	case s.Summarizing:
		return StageSummarizing
	case s.DerivedTranscript != nil && s.Summary != nil:
		return StageSummaryReady
	case s.DerivedTranscript != nil:
		return StageReady
	case s.File != nil:
		return StageFileSelected
	default:
		return StageIdle
	}
}

// TranscribeBusy is true while transcription or the automatic name inference runs
func (s *Session) TranscribeBusy() bool {
	return s.Transcribing || s.NameStatus == NameSuggestionPending
}

// HasSpeaker reports whether id is one of the detected identifiers
func (s *Session) HasSpeaker(id string) bool {
	for _, known := range s.SpeakerIDs {
		if known == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares no mutable state with s.
// The media bytes are shared because they are never mutated after upload.
func (s *Session) Clone() *Session {
	out := *s
	out.RawTranscript = cloneString(s.RawTranscript)
	out.DerivedTranscript = cloneString(s.DerivedTranscript)
	out.Summary = cloneString(s.Summary)
	out.SpeakerIDs = append([]string{}, s.SpeakerIDs...)
	out.Assignments = s.Assignments.Clone()
	out.Chat = append([]ChatTurn{}, s.Chat...)
	out.Sections = s.Sections.Clone()
	if s.Alert != nil {
		alert := *s.Alert
		out.Alert = &alert
	}
	if s.File != nil {
		file := *s.File
		out.File = &file
	}
	return &out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
