package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/api/middleware"
	"github.com/demopark/parking-api/internal/core/domain"
)

// actorFrom builds the acting user from the claims injected by the Auth
// middleware. Missing claims mean the route was wired without Auth.
func actorFrom(c echo.Context) (domain.Actor, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(domain.Role)
	if userID == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	username, _ := c.Get(middleware.CtxUsername).(string)
	return domain.Actor{UserID: userID, Username: username, Role: role}, nil
}

// bindAndValidate binds the request into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
