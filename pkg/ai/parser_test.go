package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":"b"}`:                  `{"a":"b"}`,
		"```json\n{\"a\":\"b\"}\n```": `{"a":"b"}`,
		"```\n{\"a\":\"b\"}\n```":     `{"a":"b"}`,
		"```{\"a\":\"b\"}```":         `{"a":"b"}`,
		"  \n":                        "",
	}
	for in, want := range cases {
		if got := extractJSON(in); got != want {
			t.Fatalf("extractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSpeakerNames_Malformed(t *testing.T) {
	if _, err := ParseSpeakerNames("not json"); err == nil {
		t.Fatalf("expected error")
	}
	names, err := ParseSpeakerNames("")
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty map, got %v %v", names, err)
	}
}

func TestMapProviderError_Fallback(t *testing.T) {
	err := mapProviderError("gemini", appErrors.ErrAITranscriptionFailed, fmt.Errorf("socket closed"))
	var appErr appErrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError")
	}
	if appErr.Code != appErrors.ErrorCode_AI_TRANSCRIPTION_FAILED {
		t.Fatalf("unexpected code %s", appErr.Code)
	}
	if appErr.Message != "Audio transcription failed: socket closed" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}

	err = mapProviderError("gemini", appErrors.ErrAITranscriptionFailed, context.DeadlineExceeded)
	if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrorCode_AI_SERVICE_UNAVAILABLE {
		t.Fatalf("deadline should map to unavailable, got %v", err)
	}
}

func TestFormatUtterance(t *testing.T) {
	got := formatUtterance(3_723_045, "A", "  hello there ")
	if got != "[01:02:03.045] Speaker A: hello there" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := formatUtterance(0, "", "x"); got != "[00:00:00.000] x" {
		t.Fatalf("unexpected line %q", got)
	}
}
