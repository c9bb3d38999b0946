package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/transcript-studio/pkg/validator"

	"github.com/johnquangdev/transcript-studio/internal/adapter/handler"
	"github.com/johnquangdev/transcript-studio/internal/adapter/repository"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/repositories"
	"github.com/johnquangdev/transcript-studio/internal/domain/services"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/cache"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/database"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/logging"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/storage"
	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
	"github.com/johnquangdev/transcript-studio/internal/usecase/session"
	pkgai "github.com/johnquangdev/transcript-studio/pkg/ai"
	"github.com/johnquangdev/transcript-studio/pkg/config"
	"github.com/johnquangdev/transcript-studio/pkg/jwt"
	"github.com/johnquangdev/transcript-studio/pkg/signature"
)

// @title           Transcript Studio API
// @version         1.0
// @description     Upload a recording, transcribe it, name the speakers, summarize and chat about it

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// corsAllowHeaders includes Range so the player can scrub signed media
var corsAllowHeaders = []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Range"}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Server, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Background workers stop with this context
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format:  "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: corsAllowHeaders,
	}))

	// Uploads above the session limit are refused before they are buffered
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.Session.MaxUploadBytes>>10+1024)))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Media storage
	log.Printf("📦 Initializing media storage (%s)...", cfg.Storage.Type)
	mediaStore, mediaSource, closeStorage := initMediaStorage(bgCtx, cfg)
	defer closeStorage()

	// Optional stage audit database
	var runRepo repositories.StageRunRepository
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(bgCtx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Production deployments should manage schema with cmd/migrate
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or run cmd/migrate.")
			}
			log.Println("🔄 Applying migrations (development only) ...")
			n, err := database.Migrate(db, cfg.Database.MigrationsDir)
			if err != nil {
				log.Fatalf("Failed to apply migrations: %v", err)
			}
			log.Printf("✅ Applied %d migrations", n)
		}
		runRepo = repository.NewStageRunRepository(db)
	} else {
		log.Println("⚠️  Stage audit database disabled (DB_ENABLED=false)")
	}

	// Initialize AI collaborators
	log.Printf("🤖 Initializing AI components (transcriber=%s, llm=%s)...", cfg.AI.Transcriber, cfg.AI.LLM)
	collab, providers := initCollaborators(cfg)

	recorder := session.NewStageRecorder(runRepo, providers, logger)

	// Initialize session service
	log.Println("🗂️  Initializing session service...")
	sessionService := session.NewService(collab, mediaStore, recorder, session.NewHub(), logger, session.Options{
		TTL:             cfg.Session.TTL,
		JanitorInterval: cfg.Session.JanitorInterval,
		StageTimeout:    cfg.Session.StageTimeout,
		SpeakerLabels:   cfg.Session.SpeakerLabels,
	})
	go sessionService.RunJanitor(bgCtx)
	go recorder.RunRetention(bgCtx, cfg.Database.Retention, time.Hour)

	// Initialize JWT manager
	log.Println("🔑 Initializing session token manager...")
	tokens := jwt.NewManager(cfg.Session.TokenSecret, cfg.Session.TokenExpiry)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	sessionHandler := handler.NewSessionHandler(sessionService, tokens, cfg.Session.MaxUploadBytes, logger)
	playerHandler := handler.NewPlayerHandler(sessionService, logger)
	eventsHandler := handler.NewEventsHandler(sessionService, cfg.Server.AllowedOrigins, logger)
	var mediaHandler *handler.Media
	if mediaSource != nil {
		mediaHandler = handler.NewMediaHandler(mediaSource, logger)
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, tokens, sessionHandler, playerHandler, eventsHandler, mediaHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	stopBackground()
	sessionService.CloseAll(ctx)

	log.Println("✅ Server stopped gracefully")
}

// initMediaStorage picks where uploaded media is published for playback. Cache backed stores
// are served by the signed /v1/media route; MinIO hands out presigned URLs instead.
func initMediaStorage(ctx context.Context, cfg *config.Config) (player.MediaStore, handler.MediaSource, func()) {
	signer := signature.NewURLSigner(cfg.Storage.SigningSecret)
	baseURL := strings.TrimRight(cfg.Server.PublicBaseURL, "/") + "/v1/media"

	switch cfg.Storage.Type {
	case "minio":
		client, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		log.Printf("✅ MinIO bucket ready: %s", cfg.Storage.BucketName)
		return client, nil, func() {}
	case "redis":
		store, err := cache.NewRedisStore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		media := storage.NewCacheMediaStore(store, signer, baseURL, cfg.Storage.URLExpiry)
		return media, media, func() { _ = store.Close() }
	default:
		store := cache.NewMemoryStore(time.Minute)
		media := storage.NewCacheMediaStore(store, signer, baseURL, cfg.Storage.URLExpiry)
		return media, media, func() { _ = store.Close() }
	}
}

// initCollaborators binds each AI role to the configured provider
func initCollaborators(cfg *config.Config) (session.Collaborators, map[entities.StageName]string) {
	var collab session.Collaborators
	providers := make(map[entities.StageName]string, 4)

	var gemini *pkgai.GeminiClient
	if cfg.AI.Transcriber == "gemini" || cfg.AI.LLM == "gemini" {
		gemini = pkgai.NewGeminiClient(&cfg.Gemini)
	}

	switch cfg.AI.Transcriber {
	case "assemblyai":
		collab.Transcriber = pkgai.NewAssemblyAIClient(&cfg.AssemblyAI)
	default:
		collab.Transcriber = gemini
	}
	providers[entities.StageNameTranscription] = cfg.AI.Transcriber

	var llm interface {
		services.NameInferrer
		services.Summarizer
		services.ChatProvider
	}
	switch cfg.AI.LLM {
	case "groq":
		llm = pkgai.NewGroqClient(&cfg.Groq)
	default:
		llm = gemini
	}
	collab.NameInferrer = llm
	collab.Summarizer = llm
	collab.Chat = llm
	for _, stage := range []entities.StageName{entities.StageNameNameInference, entities.StageNameSummary, entities.StageNameChat} {
		providers[stage] = cfg.AI.LLM
	}

	return collab, providers
}
