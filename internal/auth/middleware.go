package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/signalforge/forge-agent/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenMiddleware guards the API with a bearer token. An empty configured
// token disables authentication, which is the default for a panel bound to
// localhost.
func TokenMiddleware(accessToken string, logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if accessToken == "" {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				logger.Warn("authentication failed",
					zap.String("source_ip", c.RealIP()),
					zap.String("reason", "bearer token required"))
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Bearer token required",
				})
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
				logger.Warn("authentication failed",
					zap.String("source_ip", c.RealIP()),
					zap.String("reason", "invalid token"))
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Invalid token",
				})
			}

			return next(c)
		}
	}
}

// ValidateToken is the check used by the WebSocket handler, which cannot
// rely on the route middleware.
func ValidateToken(accessToken, presented string) bool {
	if accessToken == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(accessToken)) == 1
}
