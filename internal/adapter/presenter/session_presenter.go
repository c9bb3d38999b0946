package presenter

import (
	sessionDto "github.com/johnquangdev/transcript-studio/internal/adapter/dto/session"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/usecase/session"
)

// Name suggestion notices shown above the speaker editor
const (
	noticePending = "Suggesting speaker names..."
	noticeSuccess = "Speaker names were suggested automatically."
	noticePartial = "Some speaker names were suggested automatically. Please review and complete them."
	noticeFailed  = "Could not suggest speaker names automatically. Please enter them manually."

	noticeKindSuccess = "success"
)

// ToSessionResponse converts a session snapshot to its DTO
func ToSessionResponse(snap session.Snapshot) *sessionDto.SessionResponse {
	s := snap.Session
	if s == nil {
		return nil
	}

	response := &sessionDto.SessionResponse{
		ID:            s.ID.String(),
		Stage:         string(snap.Stage),
		Generation:    snap.Generation,
		Revision:      snap.Revision,
		Transcript:    s.DerivedTranscript,
		RawTranscript: s.RawTranscript,
		Speakers:      make([]sessionDto.SpeakerResponse, 0, len(s.SpeakerIDs)),
		NameStatus:    string(s.NameStatus),
		NameNotice:    ToNameNotice(s.NameStatus, len(s.SpeakerIDs)),
		Summary:       s.Summary,
		Alert:         ToAlertResponse(s.Alert),
		Chat:          make([]sessionDto.ChatTurnResponse, 0, len(s.Chat)),
		Busy: sessionDto.BusyResponse{
			Transcribing:   s.Transcribing,
			InferringNames: s.NameStatus == entities.NameSuggestionPending,
			Summarizing:    s.Summarizing,
			Chatting:       s.Chatting,
		},
		Sections:  ToSectionsResponse(s.Sections),
		Player:    snap.Player,
		UpdatedAt: s.UpdatedAt,
	}

	if s.File != nil {
		response.File = &sessionDto.FileResponse{
			Name:     s.File.Name,
			MIMEType: s.File.MIMEType,
			Size:     s.File.Size(),
			IsVideo:  s.File.IsVideo(),
		}
	}

	for _, id := range s.SpeakerIDs {
		response.Speakers = append(response.Speakers, sessionDto.SpeakerResponse{
			ID:   id,
			Name: s.Assignments[id],
		})
	}

	for _, turn := range s.Chat {
		response.Chat = append(response.Chat, ToChatTurnResponse(turn))
	}

	return response
}

// ToNameNotice derives the speaker editor notice from the suggestion status.
// A failure is only reported when there are speakers to name.
func ToNameNotice(status entities.NameSuggestionStatus, speakers int) *sessionDto.NoticeResponse {
	switch status {
	case entities.NameSuggestionPending:
		return &sessionDto.NoticeResponse{Kind: string(entities.AlertInfo), Message: noticePending}
	case entities.NameSuggestionSuccess:
		return &sessionDto.NoticeResponse{Kind: noticeKindSuccess, Message: noticeSuccess}
	case entities.NameSuggestionPartial:
		return &sessionDto.NoticeResponse{Kind: string(entities.AlertInfo), Message: noticePartial}
	case entities.NameSuggestionError:
		if speakers == 0 {
			return nil
		}
		return &sessionDto.NoticeResponse{Kind: string(entities.AlertInfo), Message: noticeFailed}
	default:
		return nil
	}
}

// ToAlertResponse converts the banner
func ToAlertResponse(a *entities.Alert) *sessionDto.NoticeResponse {
	if a == nil {
		return nil
	}
	return &sessionDto.NoticeResponse{Kind: string(a.Kind), Message: a.Message}
}

// ToChatTurnResponse converts one chat history entry
func ToChatTurnResponse(t entities.ChatTurn) sessionDto.ChatTurnResponse {
	return sessionDto.ChatTurnResponse{
		Role:    string(t.Role),
		Text:    t.Text,
		IsError: t.IsError,
		At:      t.CreatedAt,
	}
}

// ToSectionsResponse renders the open flags and the layout they produce
func ToSectionsResponse(s entities.SectionState) sessionDto.SectionsResponse {
	out := sessionDto.SectionsResponse{
		Open:         make(map[string]bool, len(entities.AllSections)),
		Rendered:     make(map[string]bool, len(entities.AllSections)),
		Fullscreen:   string(s.Fullscreen),
		ScrollLocked: s.ScrollLocked(),
	}
	for _, key := range entities.AllSections {
		out.Open[string(key)] = s.IsOpen(key)
		out.Rendered[string(key)] = s.IsRendered(key)
	}
	return out
}

// ToStageRunResponses converts the audit trail of a session
func ToStageRunResponses(runs []*entities.StageRun) []sessionDto.StageRunResponse {
	out := make([]sessionDto.StageRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, sessionDto.StageRunResponse{
			Stage:      string(r.Stage),
			Status:     string(r.Status),
			Provider:   r.Provider,
			Generation: r.Generation,
			ErrorCode:  r.ErrorCode,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			DurationMs: r.DurationMs,
		})
	}
	return out
}
