package entities

// SectionKey names one of the five collapsible panels of the workspace
type SectionKey string

const (
	SectionUpload        SectionKey = "upload"
	SectionTranscription SectionKey = "transcription"
	SectionSpeakers      SectionKey = "speakers"
	SectionChat          SectionKey = "chat"
	SectionSummary       SectionKey = "summary"
)

// AllSections lists the panels in display order
var AllSections = []SectionKey{
	SectionUpload,
	SectionTranscription,
	SectionSpeakers,
	SectionChat,
	SectionSummary,
}

// IsValid checks if the key names a known panel
func (k SectionKey) IsValid() bool {
	switch k {
	case SectionUpload, SectionTranscription, SectionSpeakers, SectionChat, SectionSummary:
		return true
	}
	return false
}

// SectionState tracks which panels are expanded and which one, if any, is fullscreen.
// Unknown keys are ignored by every mutator; callers validate with IsValid first.
type SectionState struct {
	Open       map[SectionKey]bool
	Fullscreen SectionKey
}

// NewSectionState returns the default layout: upload open, everything else closed
func NewSectionState() SectionState {
	s := SectionState{}
	s.Reset()
	return s
}

// Reset restores the default layout and clears fullscreen
func (s *SectionState) Reset() {
	s.Open = make(map[SectionKey]bool, len(AllSections))
	for _, k := range AllSections {
		s.Open[k] = false
	}
	s.Open[SectionUpload] = true
	s.Fullscreen = ""
}

// Toggle flips the open flag of one panel
func (s *SectionState) Toggle(key SectionKey) {
	if !key.IsValid() {
		return
	}
	s.Open[key] = !s.Open[key]
}

// SetOpen sets the open flag of one panel without touching the others
func (s *SectionState) SetOpen(key SectionKey, open bool) {
	if !key.IsValid() {
		return
	}
	s.Open[key] = open
}

// ToggleFullscreen makes key the exclusive fullscreen panel, or clears it when key already is
func (s *SectionState) ToggleFullscreen(key SectionKey) {
	if !key.IsValid() {
		return
	}
	if s.Fullscreen == key {
		s.Fullscreen = ""
		return
	}
	s.Fullscreen = key
}

// IsOpen reports the panel's own open flag
func (s SectionState) IsOpen(key SectionKey) bool {
	return s.Open[key]
}

// IsRendered applies the layout rule: a panel is drawn when it is open and no other
// panel is fullscreen, or when it is the fullscreen target itself.
func (s SectionState) IsRendered(key SectionKey) bool {
	if s.Fullscreen == key && key != "" {
		return true
	}
	return s.Open[key] && s.Fullscreen == ""
}

// ScrollLocked is true while any panel is fullscreen
func (s SectionState) ScrollLocked() bool {
	return s.Fullscreen != ""
}

// Clone returns a deep copy
func (s SectionState) Clone() SectionState {
	out := SectionState{
		Open:       make(map[SectionKey]bool, len(s.Open)),
		Fullscreen: s.Fullscreen,
	}
	for k, v := range s.Open {
		out.Open[k] = v
	}
	return out
}
