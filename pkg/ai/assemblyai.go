package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

const providerAssemblyAI = "assemblyai"

// AssemblyAIClient transcribes media with speaker labels through the AssemblyAI SDK
type AssemblyAIClient struct {
	client       *aai.Client
	languageCode string
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig) *AssemblyAIClient {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}
	return &AssemblyAIClient{
		client:       aai.NewClientWithOptions(opts...),
		languageCode: cfg.LanguageCode,
	}
}

// Transcribe uploads the media, waits for the transcript and renders its utterances
// as "[HH:MM:SS.mmm] Speaker X: text" lines.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, payload entities.MediaPayload) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload.Base64)
	if err != nil {
		return "", appErrors.ErrFileUnreadable("payload", err)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if c.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.languageCode)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := c.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(data), params)
	if err != nil {
		return "", mapProviderError(providerAssemblyAI, appErrors.ErrAITranscriptionFailed, err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "transcription failed"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return "", mapProviderError(providerAssemblyAI, appErrors.ErrAITranscriptionFailed, fmt.Errorf("%s", msg))
	}

	if len(transcript.Utterances) == 0 {
		return deref(transcript.Text), nil
	}

	lines := make([]string, 0, len(transcript.Utterances))
	for _, u := range transcript.Utterances {
		lines = append(lines, formatUtterance(deref(u.Start), deref(u.Speaker), deref(u.Text)))
	}
	return strings.Join(lines, "\n"), nil
}

// formatUtterance renders one transcript line; startMs is the offset in milliseconds
func formatUtterance(startMs int64, speaker, text string) string {
	if startMs < 0 {
		startMs = 0
	}
	h := startMs / 3_600_000
	m := (startMs / 60_000) % 60
	s := (startMs / 1000) % 60
	ms := startMs % 1000
	text = strings.TrimSpace(text)
	if speaker == "" {
		return fmt.Sprintf("[%02d:%02d:%02d.%03d] %s", h, m, s, ms, text)
	}
	return fmt.Sprintf("[%02d:%02d:%02d.%03d] Speaker %s: %s", h, m, s, ms, speaker, text)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
