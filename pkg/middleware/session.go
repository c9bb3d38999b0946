package middleware

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/pkg/jwt"
)

// ContextKeySessionID is where RequireSession stores the authorized session id
const ContextKeySessionID = "session_id"

// RequireSession middleware: only allow the bearer of the session's token.
// Browsers cannot set headers on websocket upgrades, so a "token" query parameter
// is accepted as well.
func RequireSession(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return reject(c, appErrors.ErrInvalidArgument("session ID must be a valid UUID"))
			}

			token := extractToken(c)
			if token == "" {
				return reject(c, appErrors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateSessionToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return reject(c, appErrors.ErrTokenExpired().WithCause(err))
				}
				return reject(c, appErrors.ErrInvalidToken().WithCause(err))
			}
			if claims.SessionID != sessionID {
				return reject(c, appErrors.ErrPermissionDenied("access this session"))
			}

			c.Set(ContextKeySessionID, sessionID)
			return next(c)
		}
	}
}

// SessionIDFrom returns the id stored by RequireSession
func SessionIDFrom(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextKeySessionID).(uuid.UUID)
	return id, ok
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.QueryParam("token")
}

func reject(c echo.Context, appErr appErrors.AppError) error {
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
