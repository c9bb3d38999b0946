package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
)

// ProviderError is a non-2xx answer from a model provider
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// stageError builds the generic application error for a stage
type stageError func(err error) appErrors.AppError

// mapProviderError turns a provider failure into an AppError.
// Invalid keys and quota problems get their own messages, everything else keeps the
// provider message after the stage's generic one.
func mapProviderError(provider string, fallback stageError, err error) error {
	if err == nil {
		return nil
	}
	var appErr appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()
	status := 0
	var pe *ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
		status = pe.StatusCode
	}

	switch {
	case strings.Contains(msg, "API key not valid"),
		status == http.StatusUnauthorized,
		status == http.StatusForbidden:
		return appErrors.ErrAIInvalidAPIKey().WithCause(err)
	case strings.Contains(strings.ToLower(msg), "quota"),
		status == http.StatusTooManyRequests:
		return appErrors.ErrAIQuotaExceeded().WithCause(err)
	case errors.Is(err, context.DeadlineExceeded),
		status == http.StatusServiceUnavailable:
		return appErrors.ErrAIServiceUnavailable(provider).WithCause(err)
	}

	base := fallback(err)
	if msg != "" {
		base.Message = base.Message + ": " + msg
	}
	return base
}
