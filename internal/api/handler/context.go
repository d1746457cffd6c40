package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmesh/mentorship/internal/api/middleware"
	"github.com/mindmesh/mentorship/internal/core/domain"
)

// callerFrom extracts the caller injected by the Auth middleware. Its
// absence means the route was mounted without Auth.
func callerFrom(c echo.Context) (domain.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return domain.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return caller, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}
