package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	sessionDto "github.com/johnquangdev/transcript-studio/internal/adapter/dto/session"
	"github.com/johnquangdev/transcript-studio/internal/adapter/presenter"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	sessionUsecase "github.com/johnquangdev/transcript-studio/internal/usecase/session"
	"github.com/johnquangdev/transcript-studio/pkg/jwt"
)

// uploadField is the multipart field carrying the media file
const uploadField = "file"

// Session handles session-related HTTP requests
type Session struct {
	service        *sessionUsecase.Service
	tokens         *jwt.Manager
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *sessionUsecase.Service, tokens *jwt.Manager, maxUploadBytes int64, logger *zap.Logger) *Session {
	return &Session{
		service:        service,
		tokens:         tokens,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// orchestrator resolves the session authorized for this request
func (h *Session) orchestrator(c echo.Context) (*sessionUsecase.Orchestrator, error) {
	id, err := sessionID(c)
	if err != nil {
		return nil, err
	}
	return h.service.Get(id)
}

func (h *Session) respond(c echo.Context, snap sessionUsecase.Snapshot, err error) error {
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(snap))
}

// discard drops a session the client never received a token for
func (h *Session) discard(ctx context.Context, id uuid.UUID) {
	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.Warn("session.discard_failed", zap.String("session_id", id.String()), zap.Error(err))
	}
}

// CreateSession handles POST /sessions
// @Summary      Create a session
// @Description  Starts an empty workspace and returns the bearer token that authorizes it
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  session.CreateSessionResponse
// @Router       /sessions [post]
func (h *Session) CreateSession(c echo.Context) error {
	orch := h.service.Create()

	token, err := h.tokens.GenerateSessionToken(orch.ID())
	if err != nil {
		h.discard(c.Request().Context(), orch.ID())
		return HandleError(h.logger, c, appErrors.ErrInternal(err))
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusCreated, &sessionDto.CreateSessionResponse{
		SessionID: orch.ID().String(),
		Token:     token,
		ExpiresIn: int64(h.tokens.GetExpiry().Seconds()),
		Session:   presenter.ToSessionResponse(orch.Snapshot()),
	})
}

// GetSession handles GET /sessions/:id
// @Summary      Get the session snapshot
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      200  {object}  session.SessionResponse
// @Failure      404  {object}  map[string]interface{}  "Session not found"
// @Router       /sessions/{id} [get]
func (h *Session) GetSession(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(orch.Snapshot()))
}

// DeleteSession handles DELETE /sessions/:id
func (h *Session) DeleteSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StageRuns handles GET /sessions/:id/stages
// @Summary      Collaborator call history
// @Description  Operational audit of the session's AI calls; empty when the audit database is disabled
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      200  {array}   session.StageRunResponse
// @Router       /sessions/{id}/stages [get]
func (h *Session) StageRuns(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	runs, err := h.service.StageRuns(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToStageRunResponses(runs))
}

// SelectFile handles POST /sessions/:id/file
// @Summary      Select a media file
// @Description  Uploads an audio or video file; the session is fully reset first
// @Tags         Sessions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Session ID (UUID)"
// @Param        file  formData  file    true  "Audio or video file"
// @Success      200   {object}  session.SessionResponse
// @Failure      413   {object}  map[string]interface{}  "File too large"
// @Failure      422   {object}  map[string]interface{}  "File is not readable media"
// @Router       /sessions/{id}/file [post]
func (h *Session) SelectFile(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return HandleError(h.logger, c, appErrors.ErrInvalidArgument("a file field is required").WithCause(err))
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return HandleError(h.logger, c, appErrors.ErrFileTooLarge(h.maxUploadBytes))
	}

	src, err := fh.Open()
	if err != nil {
		return HandleError(h.logger, c, appErrors.ErrFileUnreadable(fh.Filename, err))
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return HandleError(h.logger, c, appErrors.ErrFileUnreadable(fh.Filename, err))
	}

	snap, err := orch.SelectFile(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), data)
	return h.respond(c, snap, err)
}

// Transcribe handles POST /sessions/:id/transcribe
// @Summary      Start transcription
// @Description  Runs in the background; progress arrives on the events stream
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      202  {object}  session.SessionResponse
// @Failure      409  {object}  map[string]interface{}  "Transcription already running"
// @Router       /sessions/{id}/transcribe [post]
func (h *Session) Transcribe(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	snap, err := orch.Transcribe(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToSessionResponse(snap))
}

// RenameSpeaker handles PUT /sessions/:id/speakers
func (h *Session) RenameSpeaker(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req sessionDto.RenameSpeakerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	snap, err := orch.RenameSpeaker(req.SpeakerID, req.Name)
	return h.respond(c, snap, err)
}

// Summarize handles POST /sessions/:id/summary
func (h *Session) Summarize(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	snap, err := orch.Summarize(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToSessionResponse(snap))
}

// Chat handles POST /sessions/:id/chat
// @Summary      Ask about the transcript
// @Description  Collaborator failures are returned as an error turn, not as an HTTP error
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Session ID (UUID)"
// @Param        request  body      session.ChatRequest  true  "Message"
// @Success      200      {object}  session.ChatResponse
// @Router       /sessions/{id}/chat [post]
func (h *Session) Chat(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req sessionDto.ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	turn, err := orch.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &sessionDto.ChatResponse{
		Turn:    presenter.ToChatTurnResponse(turn),
		Session: presenter.ToSessionResponse(orch.Snapshot()),
	})
}

// Reset handles POST /sessions/:id/reset
func (h *Session) Reset(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	snap, err := orch.Reset(c.Request().Context())
	return h.respond(c, snap, err)
}

// DismissAlert handles DELETE /sessions/:id/alert
func (h *Session) DismissAlert(c echo.Context) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.respond(c, orch.DismissAlert(), nil)
}

// ToggleSection handles POST /sessions/:id/sections/:key/toggle
func (h *Session) ToggleSection(c echo.Context) error {
	return h.updateSection(c, func(o *sessionUsecase.Orchestrator, req *sessionDto.SectionRequest) (sessionUsecase.Snapshot, error) {
		return o.ToggleSection(entities.SectionKey(req.Key))
	})
}

// SetSectionOpen handles PUT /sessions/:id/sections/:key
func (h *Session) SetSectionOpen(c echo.Context) error {
	return h.updateSection(c, func(o *sessionUsecase.Orchestrator, req *sessionDto.SectionRequest) (sessionUsecase.Snapshot, error) {
		if req.Open == nil {
			return sessionUsecase.Snapshot{}, appErrors.ErrInvalidArgument("open is required")
		}
		return o.SetSectionOpen(entities.SectionKey(req.Key), *req.Open)
	})
}

// ToggleFullscreen handles POST /sessions/:id/sections/:key/fullscreen
func (h *Session) ToggleFullscreen(c echo.Context) error {
	return h.updateSection(c, func(o *sessionUsecase.Orchestrator, req *sessionDto.SectionRequest) (sessionUsecase.Snapshot, error) {
		return o.ToggleFullscreen(entities.SectionKey(req.Key))
	})
}

func (h *Session) updateSection(c echo.Context, fn func(*sessionUsecase.Orchestrator, *sessionDto.SectionRequest) (sessionUsecase.Snapshot, error)) error {
	orch, err := h.orchestrator(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req sessionDto.SectionRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, appErrors.ErrInvalidPayload().WithCause(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, appErrors.ErrUnknownSection(req.Key).WithCause(err))
	}
	snap, err := fn(orch, &req)
	return h.respond(c, snap, err)
}
