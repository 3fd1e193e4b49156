package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// fieldErrors responds with a 400 mapping field names to messages, matching
// the serializer-style validation bodies clients already parse.
func fieldErrors(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, fields)
}

func fieldError(c echo.Context, field, msg string) error {
	return fieldErrors(c, map[string]string{field: msg})
}

// detailError responds with a {"detail": ...} body and the given status.
func detailError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"detail": msg})
}

func notFound(c echo.Context, msg string) error {
	return detailError(c, http.StatusNotFound, msg)
}

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// Postgres says "duplicate key value", sqlite "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint")
}
