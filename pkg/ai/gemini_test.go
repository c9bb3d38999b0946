package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

func newTestGemini(t *testing.T, h http.HandlerFunc) *GeminiClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewGeminiClient(&config.GeminiConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "gemini-test"})
}

func writeGeminiText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []map[string]interface{}{{
			"content": map[string]interface{}{
				"role":  "model",
				"parts": []map[string]string{{"text": text}},
			},
			"finishReason": "STOP",
		}},
	})
}

func TestGeminiTranscribe_SendsInlineMedia(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil {
			t.Fatalf("expected prompt and inline media, got %+v", parts)
		}
		if parts[1].InlineData.MIMEType != "audio/mpeg" || parts[1].InlineData.Data != "QUJD" {
			t.Fatalf("unexpected inline data %+v", parts[1].InlineData)
		}
		writeGeminiText(w, "[00:00:01] Speaker A: hello")
	})

	got, err := client.Transcribe(context.Background(), entities.MediaPayload{MIMEType: "audio/mpeg", Base64: "QUJD"})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if got != "[00:00:01] Speaker A: hello" {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestGeminiInferSpeakerNames(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Fatalf("expected JSON response mode")
		}
		writeGeminiText(w, "```json\n{\"Speaker A\": \"Anna\", \"Speaker B\": \"Speaker B\"}\n```")
	})

	names, err := client.InferSpeakerNames(context.Background(), "Speaker A: hi Ivan\nSpeaker B: hi Anna")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if names["Speaker A"] != "Anna" || names["Speaker B"] != "Speaker B" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestGeminiInferSpeakerNames_EmptyTranscriptSkipsCall(t *testing.T) {
	var calls int32
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	names, err := client.InferSpeakerNames(context.Background(), "   ")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(names) != 0 || atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected empty result without a call, got %v after %d calls", names, calls)
	}
}

func TestGeminiErrors_Mapped(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		message string
		code    appErrors.ErrorCode
		contain string
	}{
		{"invalid key", http.StatusBadRequest, "API key not valid. Please pass a valid API key.", appErrors.ErrorCode_AI_INVALID_API_KEY, ""},
		{"quota", http.StatusTooManyRequests, "Resource has been exhausted (e.g. check quota).", appErrors.ErrorCode_AI_QUOTA_EXCEEDED, ""},
		{"other", http.StatusBadRequest, "Unsupported MIME type: text/plain", appErrors.ErrorCode_AI_SUMMARY_FAILED, "Unsupported MIME type: text/plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{"code": tc.status, "message": tc.message},
				})
			})
			_, err := client.Summarize(context.Background(), "Speaker A: hi")
			var appErr appErrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %T %v", err, err)
			}
			if appErr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, appErr.Code)
			}
			if tc.contain != "" && !strings.Contains(appErr.Message, tc.contain) {
				t.Fatalf("expected provider message in %q", appErr.Message)
			}
		})
	}
}

func TestGeminiChat_KeepsHistoryAndDropsFailedTurn(t *testing.T) {
	var fail atomic.Bool
	var lastContents int32
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.SystemInstruction == nil || !strings.Contains(req.SystemInstruction.Parts[0].Text, "Speaker A: hi") {
			t.Fatalf("system instruction must carry the transcript")
		}
		atomic.StoreInt32(&lastContents, int32(len(req.Contents)))
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":500,"message":"boom"}}`))
			return
		}
		writeGeminiText(w, "answer")
	})

	cs, err := client.StartChat(context.Background(), "Speaker A: hi")
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}
	chat := cs.(*GeminiChat)

	if _, err := chat.Send(context.Background(), "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if chat.Turns() != 2 {
		t.Fatalf("expected 2 turns, got %d", chat.Turns())
	}

	fail.Store(true)
	if _, err := chat.Send(context.Background(), "second"); err == nil {
		t.Fatalf("expected failure")
	}
	if chat.Turns() != 2 {
		t.Fatalf("failed turn must not stay in history, got %d", chat.Turns())
	}

	fail.Store(false)
	if _, err := chat.Send(context.Background(), "again"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if atomic.LoadInt32(&lastContents) != 3 {
		t.Fatalf("expected 3 contents in request, got %d", lastContents)
	}
}

func TestGeminiStartChat_RequiresTranscript(t *testing.T) {
	client := NewGeminiClient(&config.GeminiConfig{APIKey: "k", BaseURL: "http://unused", Model: "m"})
	if _, err := client.StartChat(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty transcript")
	}
}
