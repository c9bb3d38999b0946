package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal server error")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrStageInProgress = errors.New("stage already in progress")
)

// Pipeline errors
var (
	ErrNoFileSelected  = errors.New("no file selected")
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoTranscript    = errors.New("no transcript available")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyContext    = errors.New("transcript context is empty")
	ErrUnknownSpeaker  = errors.New("unknown speaker identifier")
	ErrUnknownSection  = errors.New("unknown section")
	ErrStaleGeneration = errors.New("result belongs to a previous generation")
)

// Media errors
var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrSignatureInvalid = errors.New("media signature invalid")
	ErrSignatureExpired = errors.New("media signature expired")
)
