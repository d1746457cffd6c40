package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// CallerKey is the echo context key holding the verified domain.Caller.
const CallerKey = "caller"

// Auth verifies the bearer token and injects the resolved caller into context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			caller, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

// CallerFrom returns the caller injected by Auth.
func CallerFrom(c echo.Context) (domain.Caller, bool) {
	caller, ok := c.Get(CallerKey).(domain.Caller)
	return caller, ok && caller.ID != ""
}
