package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/services"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

const providerGroq = "groq"

// GroqClient talks to Groq's OpenAI-compatible API. It serves the text roles:
// name inference, summary and chat.
type GroqClient struct {
	client *openai.Client
	model  string
}

// NewGroqClient creates a Groq client using values from the provided config
func NewGroqClient(cfg *config.GroqConfig) *GroqClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.groq.com"
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = base + "/openai/v1"
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &GroqClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

// InferSpeakerNames asks for a JSON object mapping identifiers to names.
// An empty transcript yields an empty map without calling the model.
func (g *GroqClient) InferSpeakerNames(ctx context.Context, transcript string) (map[string]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return map[string]string{}, nil
	}
	content, err := g.complete(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: inferNamesPrompt(transcript)},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, mapProviderError(providerGroq, appErrors.ErrAINameInferenceFailed, err)
	}
	names, err := ParseSpeakerNames(content)
	if err != nil {
		return nil, appErrors.ErrAIMalformedResponse(err)
	}
	return names, nil
}

// Summarize returns a Markdown summary
func (g *GroqClient) Summarize(ctx context.Context, transcript string) (string, error) {
	content, err := g.complete(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: summaryPrompt(transcript)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", mapProviderError(providerGroq, appErrors.ErrAISummaryFailed, err)
	}
	return content, nil
}

// StartChat opens a conversation seeded with a system message carrying the transcript
func (g *GroqClient) StartChat(ctx context.Context, transcript string) (services.ChatSession, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, appErrors.ErrTranscriptRequired()
	}
	return &GroqChat{
		client: g,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemInstruction(transcript)},
		},
	}, nil
}

// GroqChat keeps the messages of one conversation, system message first
type GroqChat struct {
	client  *GroqClient
	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

// Send appends the message and returns the reply; a failed turn is dropped from history
func (c *GroqChat) Send(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
	content, err := c.client.complete(ctx, openai.ChatCompletionRequest{
		Model:       c.client.model,
		Messages:    c.history,
		Temperature: 0.2,
	})
	if err != nil {
		c.history = c.history[:len(c.history)-1]
		return "", mapProviderError(providerGroq, appErrors.ErrAIChatFailed, err)
	}
	c.history = append(c.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
	return content, nil
}

func (g *GroqClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: providerGroq, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &ProviderError{Provider: providerGroq, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}
	return resp.Choices[0].Message.Content, nil
}
