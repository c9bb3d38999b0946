package entities

import "strings"

// NameSuggestionStatus describes the outcome of the latest automatic name inference
type NameSuggestionStatus string

const (
	NameSuggestionIdle    NameSuggestionStatus = "idle"    // No speakers or no attempt made
	NameSuggestionPending NameSuggestionStatus = "pending" // Inference call in flight
	NameSuggestionSuccess NameSuggestionStatus = "success" // Every speaker got a name
	NameSuggestionPartial NameSuggestionStatus = "partial" // Some speakers got a name
	NameSuggestionError   NameSuggestionStatus = "error"   // No names, or the call failed
)

// SpeakerAssignments maps a speaker identifier to the display name shown in the transcript
type SpeakerAssignments map[string]string

// IdentityAssignments maps every identifier to itself
func IdentityAssignments(ids []string) SpeakerAssignments {
	out := make(SpeakerAssignments, len(ids))
	for _, id := range ids {
		out[id] = id
	}
	return out
}

// NameFor returns the display name for id, falling back to id when unset or blank
func (a SpeakerAssignments) NameFor(id string) string {
	if name := strings.TrimSpace(a[id]); name != "" {
		return a[id]
	}
	return id
}

// Clone returns a copy safe to hand out of the session lock
func (a SpeakerAssignments) Clone() SpeakerAssignments {
	out := make(SpeakerAssignments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// MergeSuggestions adopts suggested names that are present and differ from the identifier,
// and classifies the outcome. ids must be non-empty.
func (a SpeakerAssignments) MergeSuggestions(ids []string, suggested map[string]string) NameSuggestionStatus {
	named := 0
	for _, id := range ids {
		name := strings.TrimSpace(suggested[id])
		if name == "" || name == id {
			continue
		}
		a[id] = name
		named++
	}

	switch {
	case named == len(ids):
		return NameSuggestionSuccess
	case named > 0:
		return NameSuggestionPartial
	default:
		return NameSuggestionError
	}
}
