package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

func groqCompletion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "llama-test",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func newTestGroq(t *testing.T, h http.HandlerFunc) *GroqClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "llama-test"})
}

func TestGroqSummarize(t *testing.T) {
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groqCompletion("## Key points\n- one"))
	})

	got, err := client.Summarize(context.Background(), "Anna: hi")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "## Key points\n- one" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestGroqInferSpeakerNames_JSONMode(t *testing.T) {
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		rf, _ := req["response_format"].(map[string]interface{})
		if rf["type"] != "json_object" {
			t.Fatalf("expected json_object response format, got %v", req["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groqCompletion(`{"Speaker A":"Anna","Speaker B":7}`))
	})

	names, err := client.InferSpeakerNames(context.Background(), "Speaker A: hi")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(names) != 1 || names["Speaker A"] != "Anna" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestGroqInvalidKey(t *testing.T) {
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := client.Summarize(context.Background(), "Anna: hi")
	var appErr appErrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrorCode_AI_INVALID_API_KEY {
		t.Fatalf("expected invalid key error, got %v", err)
	}
}

func TestGroqChat_SystemMessageFirst(t *testing.T) {
	var roles []string
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		roles = roles[:0]
		for _, m := range req.Messages {
			roles = append(roles, m.Role)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groqCompletion("sure"))
	})

	chat, err := client.StartChat(context.Background(), "Anna: hi")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	chat.Send(context.Background(), "one")
	if _, err := chat.Send(context.Background(), "two"); err != nil {
		t.Fatalf("send: %v", err)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("expected roles %v, got %v", want, roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("expected roles %v, got %v", want, roles)
		}
	}
}
