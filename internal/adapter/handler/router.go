package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/transcript-studio/pkg/config"
	"github.com/johnquangdev/transcript-studio/pkg/jwt"
	"github.com/johnquangdev/transcript-studio/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	tokens         *jwt.Manager
	sessionHandler *Session
	playerHandler  *Player
	eventsHandler  *Events
	mediaHandler   *Media // nil when media is served by object storage
	startedAt      time.Time
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, tokens *jwt.Manager, sessionHandler *Session, playerHandler *Player, eventsHandler *Events, mediaHandler *Media) *Router {
	return &Router{
		cfg:            cfg,
		tokens:         tokens,
		sessionHandler: sessionHandler,
		playerHandler:  playerHandler,
		eventsHandler:  eventsHandler,
		mediaHandler:   mediaHandler,
		startedAt:      time.Now(),
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Ops endpoints
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSessionRoutes(v1)
	rt.setupMediaRoutes(v1)
}

// setupSessionRoutes configures session routes; everything below /:id needs the session token
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")
	sessions.POST("", rt.sessionHandler.CreateSession)

	s := sessions.Group("/:id", middleware.RequireSession(rt.tokens))
	s.GET("", rt.sessionHandler.GetSession)
	s.DELETE("", rt.sessionHandler.DeleteSession)
	s.GET("/events", rt.eventsHandler.Stream)
	s.GET("/stages", rt.sessionHandler.StageRuns)

	s.POST("/file", rt.sessionHandler.SelectFile)
	s.POST("/transcribe", rt.sessionHandler.Transcribe)
	s.PUT("/speakers", rt.sessionHandler.RenameSpeaker)
	s.POST("/summary", rt.sessionHandler.Summarize)
	s.POST("/chat", rt.sessionHandler.Chat)
	s.POST("/reset", rt.sessionHandler.Reset)
	s.DELETE("/alert", rt.sessionHandler.DismissAlert)

	s.POST("/sections/:key/toggle", rt.sessionHandler.ToggleSection)
	s.PUT("/sections/:key", rt.sessionHandler.SetSectionOpen)
	s.POST("/sections/:key/fullscreen", rt.sessionHandler.ToggleFullscreen)

	p := s.Group("/player")
	p.POST("/play", rt.playerHandler.Play)
	p.POST("/pause", rt.playerHandler.Pause)
	p.POST("/mute", rt.playerHandler.ToggleMute)
	p.PUT("/volume", rt.playerHandler.SetVolume)
	p.POST("/seek", rt.playerHandler.Seek)
	p.POST("/events", rt.playerHandler.ReportEvent)
}

// setupMediaRoutes configures signed media downloads; the signature is the authorization
func (rt *Router) setupMediaRoutes(g *echo.Group) {
	if rt.mediaHandler == nil {
		return
	}
	g.GET("/media/:key", rt.mediaHandler.Download)
	g.HEAD("/media/:key", rt.mediaHandler.Download)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
		"uptime":      time.Since(rt.startedAt).Round(time.Second).String(),
	})
}
