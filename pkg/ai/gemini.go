package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/services"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

const providerGemini = "gemini"

// GeminiClient calls the Gemini generateContent REST endpoint. It serves every
// collaborator role: transcription, name inference, summary and chat.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiClient creates a Gemini client from config
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Transcribe sends the media inline together with the transcription instructions
func (g *GeminiClient) Transcribe(ctx context.Context, payload entities.MediaPayload) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: transcribePrompt},
				{InlineData: &geminiInlineData{MIMEType: payload.MIMEType, Data: payload.Base64}},
			},
		}},
	}
	text, err := g.generate(ctx, req)
	if err != nil {
		return "", mapProviderError(providerGemini, appErrors.ErrAITranscriptionFailed, err)
	}
	return text, nil
}

// InferSpeakerNames asks for a JSON object mapping identifiers to names.
// An empty transcript yields an empty map without calling the model.
func (g *GeminiClient) InferSpeakerNames(ctx context.Context, transcript string) (map[string]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return map[string]string{}, nil
	}
	req := geminiRequest{
		Contents:         []geminiContent{userText(inferNamesPrompt(transcript))},
		GenerationConfig: &geminiGenerationConfig{ResponseMIMEType: "application/json"},
	}
	text, err := g.generate(ctx, req)
	if err != nil {
		return nil, mapProviderError(providerGemini, appErrors.ErrAINameInferenceFailed, err)
	}
	names, err := ParseSpeakerNames(text)
	if err != nil {
		return nil, appErrors.ErrAIMalformedResponse(err)
	}
	return names, nil
}

// Summarize returns a Markdown summary
func (g *GeminiClient) Summarize(ctx context.Context, transcript string) (string, error) {
	text, err := g.generate(ctx, geminiRequest{
		Contents: []geminiContent{userText(summaryPrompt(transcript))},
	})
	if err != nil {
		return "", mapProviderError(providerGemini, appErrors.ErrAISummaryFailed, err)
	}
	return text, nil
}

// StartChat opens a conversation whose system instruction carries the transcript
func (g *GeminiClient) StartChat(ctx context.Context, transcript string) (services.ChatSession, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, appErrors.ErrTranscriptRequired()
	}
	system := userText(chatSystemInstruction(transcript))
	system.Role = ""
	return &GeminiChat{client: g, system: system}, nil
}

// GeminiChat keeps the turns of one conversation
type GeminiChat struct {
	client  *GeminiClient
	system  geminiContent
	mu      sync.Mutex
	history []geminiContent
}

// Send appends the message to the history and returns the model reply.
// A failed turn is removed again so the history only holds answered messages.
func (c *GeminiChat) Send(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, userText(message))
	text, err := c.client.generate(ctx, geminiRequest{
		SystemInstruction: &c.system,
		Contents:          c.history,
	})
	if err != nil {
		c.history = c.history[:len(c.history)-1]
		return "", mapProviderError(providerGemini, appErrors.ErrAIChatFailed, err)
	}
	c.history = append(c.history, geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}})
	return text, nil
}

// Turns returns the number of stored messages
func (c *GeminiChat) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

func userText(text string) geminiContent {
	return geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}}
}

func (g *GeminiClient) generate(ctx context.Context, body geminiRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb geminiErrorBody
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return "", &ProviderError{Provider: providerGemini, StatusCode: resp.StatusCode, Message: msg}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", appErrors.ErrAIMalformedResponse(err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("request blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
