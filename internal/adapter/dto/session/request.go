package session

// RenameSpeakerRequest assigns a display name to one speaker identifier.
// An empty name restores the identifier.
type RenameSpeakerRequest struct {
	SpeakerID string `json:"speaker_id" validate:"required,max=100"`
	Name      string `json:"name" validate:"max=200"`
}

// ChatRequest carries one user message
type ChatRequest struct {
	Message string `json:"message" validate:"max=8000"`
}

// SectionRequest addresses one panel; Open is used only by the set-open route
type SectionRequest struct {
	Key  string `param:"key" validate:"required,section"`
	Open *bool  `json:"open"`
}

// SeekRequest moves the playback cursor to a fraction of the duration
type SeekRequest struct {
	Fraction float64 `json:"fraction" validate:"gte=0,lte=1"`
}

// VolumeRequest sets the playback volume
type VolumeRequest struct {
	Volume float64 `json:"volume" validate:"gte=0,lte=1"`
}

// PlayerEventRequest reports what the client-side media element actually did
type PlayerEventRequest struct {
	Type     string  `json:"type" validate:"required,player_event"`
	MediaKey string  `json:"media_key"`
	Duration float64 `json:"duration" validate:"gte=0"`
	Position float64 `json:"position" validate:"gte=0"`
}
