package services

import (
	"context"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

// Transcriber turns an audio or video payload into a speaker-labelled transcript.
// Each line looks like "[HH:MM:SS.mmm] Speaker A: text".
type Transcriber interface {
	Transcribe(ctx context.Context, payload entities.MediaPayload) (string, error)
}

// NameInferrer suggests real names for the speaker identifiers of a transcript.
// The result maps identifier to suggested name; unknown speakers may be missing
// or map to themselves.
type NameInferrer interface {
	InferSpeakerNames(ctx context.Context, transcript string) (map[string]string, error)
}

// Summarizer produces a Markdown summary of a transcript
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// ChatProvider opens a conversation grounded in one transcript
type ChatProvider interface {
	StartChat(ctx context.Context, transcript string) (ChatSession, error)
}

// ChatSession is a multi-turn conversation; it keeps its own history
type ChatSession interface {
	Send(ctx context.Context, message string) (string, error)
}
