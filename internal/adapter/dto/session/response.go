package session

import (
	"time"

	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
)

// CreateSessionResponse is returned once per session; the token authorizes every later call
type CreateSessionResponse struct {
	SessionID string           `json:"session_id"`
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expires_in"`
	Session   *SessionResponse `json:"session"`
}

// SessionResponse is the full snapshot rendered by the client
type SessionResponse struct {
	ID            string             `json:"id"`
	Stage         string             `json:"stage"`
	Generation    uint64             `json:"generation"`
	Revision      uint64             `json:"revision"`
	File          *FileResponse      `json:"file,omitempty"`
	Transcript    *string            `json:"transcript,omitempty"`
	RawTranscript *string            `json:"raw_transcript,omitempty"`
	Speakers      []SpeakerResponse  `json:"speakers"`
	NameStatus    string             `json:"name_status"`
	NameNotice    *NoticeResponse    `json:"name_notice,omitempty"`
	Summary       *string            `json:"summary,omitempty"`
	Alert         *NoticeResponse    `json:"alert,omitempty"`
	Chat          []ChatTurnResponse `json:"chat"`
	Busy          BusyResponse       `json:"busy"`
	Sections      SectionsResponse   `json:"sections"`
	Player        player.State       `json:"player"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// FileResponse describes the selected media file
type FileResponse struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
	IsVideo  bool   `json:"is_video"`
}

// SpeakerResponse is one row of the speaker editor
type SpeakerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NoticeResponse is a banner: error, advisory, info or success
type NoticeResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ChatTurnResponse is one chat history entry
type ChatTurnResponse struct {
	Role    string    `json:"role"`
	Text    string    `json:"text"`
	IsError bool      `json:"is_error"`
	At      time.Time `json:"at"`
}

// BusyResponse drives spinners and disabled buttons
type BusyResponse struct {
	Transcribing   bool `json:"transcribing"`
	InferringNames bool `json:"inferring_names"`
	Summarizing    bool `json:"summarizing"`
	Chatting       bool `json:"chatting"`
}

// SectionsResponse carries the open flags and the resulting layout
type SectionsResponse struct {
	Open         map[string]bool `json:"open"`
	Rendered     map[string]bool `json:"rendered"`
	Fullscreen   string          `json:"fullscreen,omitempty"`
	ScrollLocked bool            `json:"scroll_locked"`
}

// ChatResponse returns the model turn together with the updated snapshot
type ChatResponse struct {
	Turn    ChatTurnResponse `json:"turn"`
	Session *SessionResponse `json:"session"`
}

// StageRunResponse is one audited collaborator call
type StageRunResponse struct {
	Stage      string     `json:"stage"`
	Status     string     `json:"status"`
	Provider   string     `json:"provider,omitempty"`
	Generation uint64     `json:"generation"`
	ErrorCode  *string    `json:"error_code,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}
