package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.AI.Transcriber)
	assert.Equal(t, "gemini", cfg.AI.LLM)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(100)<<20, cfg.Session.MaxUploadBytes)
	assert.Equal(t, []string{"Speaker", "Диктор"}, cfg.Session.SpeakerLabels)
	assert.Equal(t, 30*24*time.Hour, cfg.Database.Retention)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 180*time.Second, cfg.Gemini.Timeout)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AI_TRANSCRIBER", "AssemblyAI")
	t.Setenv("ASSEMBLYAI_API_KEY", "a")
	t.Setenv("AI_LLM", "groq")
	t.Setenv("GROQ_API_KEY", "g")
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("SPEAKER_LABELS", " Speaker , ,Sprecher")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("DB_RETENTION_DAYS", "7")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "assemblyai", cfg.AI.Transcriber)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.Equal(t, []string{"Speaker", "Sprecher"}, cfg.Session.SpeakerLabels)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(8)<<20, cfg.Session.MaxUploadBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.Database.Retention)
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:      AIConfig{Transcriber: "gemini", LLM: "gemini"},
			Gemini:  GeminiConfig{APIKey: "k"},
			Storage: StorageConfig{Type: "memory"},
			Session: SessionConfig{TTL: time.Hour, SpeakerLabels: []string{"Speaker"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }, "GEMINI_API_KEY"},
		{"unknown transcriber", func(c *Config) { c.AI.Transcriber = "whisper" }, "AI_TRANSCRIBER"},
		{"groq without key", func(c *Config) { c.AI.LLM = "groq" }, "GROQ_API_KEY"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "s3" }, "STORAGE_TYPE"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"no labels", func(c *Config) { c.Session.SpeakerLabels = nil }, "SPEAKER_LABELS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}
