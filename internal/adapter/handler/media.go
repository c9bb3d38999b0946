package handler

import (
	"bytes"
	"context"
	stdErrors "errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/transcript-studio/errors"
	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
)

// MediaSource serves media published behind signed links
type MediaSource interface {
	Open(ctx context.Context, key, expires, sig string) (string, []byte, error)
}

// Media serves uploaded media to the client-side player
type Media struct {
	source MediaSource
	logger *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(source MediaSource, logger *zap.Logger) *Media {
	return &Media{source: source, logger: logger}
}

// Download handles GET /media/:key
// @Summary      Stream uploaded media
// @Description  Serves the bytes behind a signed playable URL; supports range requests for seeking
// @Tags         Media
// @Produce      octet-stream
// @Param        key      path   string  true  "Media key"
// @Param        expires  query  string  true  "Unix expiry"
// @Param        sig      query  string  true  "HMAC signature"
// @Success      200
// @Failure      403  {object}  map[string]interface{}  "Invalid or expired signature"
// @Failure      404  {object}  map[string]interface{}  "Media not found"
// @Router       /media/{key} [get]
func (h *Media) Download(c echo.Context) error {
	key := c.Param("key")
	mimeType, data, err := h.source.Open(c.Request().Context(), key, c.QueryParam("expires"), c.QueryParam("sig"))
	if err != nil {
		switch {
		case stdErrors.Is(err, usecaseErrors.ErrSignatureInvalid), stdErrors.Is(err, usecaseErrors.ErrSignatureExpired):
			return HandleError(h.logger, c, errors.ErrMediaSignatureInvalid().WithCause(err))
		case stdErrors.Is(err, usecaseErrors.ErrMediaNotFound):
			return HandleError(h.logger, c, errors.ErrNotFound("media").WithCause(err))
		default:
			return HandleError(h.logger, c, errors.ErrCacheFailed("load media", err))
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, mimeType)
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Response(), c.Request(), key, time.Time{}, bytes.NewReader(data))
	return nil
}
