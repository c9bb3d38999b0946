package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Session    SessionConfig
	AI         AIConfig
	Gemini     GeminiConfig
	Groq       GroqConfig
	AssemblyAI AssemblyAIConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Log        LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	PublicBaseURL   string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// SessionConfig controls the lifetime and limits of editing sessions
type SessionConfig struct {
	TTL             time.Duration
	TokenSecret     string
	TokenExpiry     time.Duration
	MaxUploadBytes  int64
	StageTimeout    time.Duration
	SpeakerLabels   []string
	JanitorInterval time.Duration
}

// AIConfig selects which provider plays each collaborator role
type AIConfig struct {
	Transcriber string // "gemini" or "assemblyai"
	LLM         string // "gemini" or "groq"
}

// GeminiConfig is read with envconfig using the GEMINI prefix
type GeminiConfig struct {
	APIKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Model   string        `envconfig:"MODEL" default:"gemini-2.5-flash"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"180s"`
}

// GroqConfig is read with envconfig using the GROQ prefix
type GroqConfig struct {
	APIKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"API_URL" default:"https://api.groq.com"`
	Model   string        `envconfig:"MODEL" default:"llama-3.3-70b-versatile"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// AssemblyAIConfig is read with envconfig using the ASSEMBLYAI prefix
type AssemblyAIConfig struct {
	APIKey       string `envconfig:"API_KEY"`
	BaseURL      string `envconfig:"BASE_URL"`
	LanguageCode string `envconfig:"LANGUAGE_CODE"`
}

// StorageConfig holds media storage configuration
type StorageConfig struct {
	Type            string // "memory", "redis" or "minio"
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
	URLExpiry       time.Duration
	SigningSecret   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// DatabaseConfig holds the optional stage-run audit database
type DatabaseConfig struct {
	Enabled       bool
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxConns      int
	MinConns      int
	AutoMigrate   bool
	MigrationsDir string
	Retention     time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", "2h"),
			TokenSecret:     getEnv("SESSION_TOKEN_SECRET", "change-me-session-secret"),
			TokenExpiry:     getEnvAsDuration("SESSION_TOKEN_EXPIRY", "12h"),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_MB", 100)) << 20,
			StageTimeout:    getEnvAsDuration("STAGE_TIMEOUT", "5m"),
			SpeakerLabels:   getEnvAsSlice("SPEAKER_LABELS", []string{"Speaker", "Диктор"}),
			JanitorInterval: getEnvAsDuration("SESSION_JANITOR_INTERVAL", "1m"),
		},
		AI: AIConfig{
			Transcriber: strings.ToLower(getEnv("AI_TRANSCRIBER", "gemini")),
			LLM:         strings.ToLower(getEnv("AI_LLM", "gemini")),
		},
		Storage: StorageConfig{
			Type:            strings.ToLower(getEnv("STORAGE_TYPE", "memory")),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "transcript-studio"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
			URLExpiry:       getEnvAsDuration("STORAGE_URL_EXPIRY", "2h"),
			SigningSecret:   getEnv("MEDIA_SIGNING_SECRET", "change-me-media-secret"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:       getEnvAsBool("DB_ENABLED", false),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			Name:          getEnv("DB_NAME", "transcript_studio"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 2),
			AutoMigrate:   getEnvAsBool("DB_AUTO_MIGRATE", false),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
			Retention:     time.Duration(getEnvAsInt("DB_RETENTION_DAYS", 30)) * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	// Provider sections
	if err := envconfig.Process("GEMINI", &config.Gemini); err != nil {
		return nil, fmt.Errorf("failed to read GEMINI config: %w", err)
	}
	if err := envconfig.Process("GROQ", &config.Groq); err != nil {
		return nil, fmt.Errorf("failed to read GROQ config: %w", err)
	}
	if err := envconfig.Process("ASSEMBLYAI", &config.AssemblyAI); err != nil {
		return nil, fmt.Errorf("failed to read ASSEMBLYAI config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.AI.Transcriber {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_TRANSCRIBER=gemini")
		}
	case "assemblyai":
		if c.AssemblyAI.APIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required when AI_TRANSCRIBER=assemblyai")
		}
	default:
		return fmt.Errorf("unsupported AI_TRANSCRIBER %q", c.AI.Transcriber)
	}

	switch c.AI.LLM {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_LLM=gemini")
		}
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required when AI_LLM=groq")
		}
	default:
		return fmt.Errorf("unsupported AI_LLM %q", c.AI.LLM)
	}

	switch c.Storage.Type {
	case "memory", "redis", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if len(c.Session.SpeakerLabels) == 0 {
		return fmt.Errorf("SPEAKER_LABELS must contain at least one label")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
