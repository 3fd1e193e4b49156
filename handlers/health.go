package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is an unauthenticated liveness endpoint.
func (h *Handler) Health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
