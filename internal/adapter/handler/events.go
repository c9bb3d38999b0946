package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	sessionDto "github.com/johnquangdev/transcript-studio/internal/adapter/dto/session"
	"github.com/johnquangdev/transcript-studio/internal/adapter/presenter"
	sessionUsecase "github.com/johnquangdev/transcript-studio/internal/usecase/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// eventMessage is one frame of the snapshot stream
type eventMessage struct {
	Type    string                      `json:"type"`
	Session *sessionDto.SessionResponse `json:"session,omitempty"`
}

// Events streams session snapshots over a websocket
type Events struct {
	service  *sessionUsecase.Service
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewEventsHandler creates a websocket handler accepting the given origins; "*" allows any
func NewEventsHandler(service *sessionUsecase.Service, allowedOrigins []string, logger *zap.Logger) *Events {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Events{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: logger,
	}
}

// Stream handles GET /sessions/:id/events
// @Summary      Session snapshot stream
// @Description  Websocket; sends the current snapshot, then one frame per state change
// @Tags         Sessions
// @Param        id     path   string  true  "Session ID (UUID)"
// @Param        token  query  string  true  "Session token"
// @Router       /sessions/{id}/events [get]
func (h *Events) Stream(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	orch, err := h.service.Get(id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.Warn("events.upgrade_failed", zap.String("session_id", id.String()), zap.Error(err))
		return nil
	}
	defer conn.Close()

	updates, unsubscribe := h.service.Hub().Subscribe(id)
	defer unsubscribe()

	h.logger.Info("events.connected", zap.String("session_id", id.String()))
	done := make(chan struct{})
	go h.readPump(conn, done)

	initial := orch.Snapshot()
	if err := h.write(conn, eventMessage{Type: "snapshot", Session: presenter.ToSessionResponse(initial)}); err != nil {
		return nil
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = h.write(conn, eventMessage{Type: "closed"})
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return nil
			}
			// already covered by the initial snapshot
			if snap.Revision <= initial.Revision {
				continue
			}
			if err := h.write(conn, eventMessage{Type: "snapshot", Session: presenter.ToSessionResponse(snap)}); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-done:
			h.logger.Info("events.disconnected", zap.String("session_id", id.String()))
			return nil
		}
	}
}

func (h *Events) write(conn *websocket.Conn, msg eventMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readPump drains client frames so pongs and close frames are processed
func (h *Events) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
