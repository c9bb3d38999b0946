package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	sessionDto "github.com/johnquangdev/transcript-studio/internal/adapter/dto/session"
	"github.com/johnquangdev/transcript-studio/internal/adapter/presenter"
	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
	sessionUsecase "github.com/johnquangdev/transcript-studio/internal/usecase/session"
)

// Player handles playback requests. Commands express intent; the client reports
// what actually happened through events.
type Player struct {
	service *sessionUsecase.Service
	logger  *zap.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(service *sessionUsecase.Service, logger *zap.Logger) *Player {
	return &Player{service: service, logger: logger}
}

func (h *Player) withSession(c echo.Context, fn func(*sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error)) error {
	id, err := sessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	orch, err := h.service.Get(id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	snap, err := fn(orch)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(snap))
}

// Play handles POST /sessions/:id/player/play
func (h *Player) Play(c echo.Context) error {
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.Play(), nil
	})
}

// Pause handles POST /sessions/:id/player/pause
func (h *Player) Pause(c echo.Context) error {
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.Pause(), nil
	})
}

// ToggleMute handles POST /sessions/:id/player/mute
func (h *Player) ToggleMute(c echo.Context) error {
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.ToggleMute(), nil
	})
}

// SetVolume handles PUT /sessions/:id/player/volume
func (h *Player) SetVolume(c echo.Context) error {
	var req sessionDto.VolumeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.SetVolume(req.Volume), nil
	})
}

// Seek handles POST /sessions/:id/player/seek
func (h *Player) Seek(c echo.Context) error {
	var req sessionDto.SeekRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.Seek(req.Fraction), nil
	})
}

// ReportEvent handles POST /sessions/:id/player/events
func (h *Player) ReportEvent(c echo.Context) error {
	var req sessionDto.PlayerEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	return h.withSession(c, func(o *sessionUsecase.Orchestrator) (sessionUsecase.Snapshot, error) {
		return o.ReportPlayerEvent(player.Event{
			Type:     player.EventType(req.Type),
			MediaKey: req.MediaKey,
			Duration: req.Duration,
			Position: req.Position,
		})
	})
}
