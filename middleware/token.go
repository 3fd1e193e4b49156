package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/budgetapi/models"
	"github.com/padraicbc/budgetapi/tokens"
)

// UserKey is the echo context key under which TokenAuth stores the caller.
const UserKey = "user"

// TokenAuth returns an Echo middleware that resolves the Authorization header
// ("Token <key>") to a user via the token table. The resolved *models.User is
// stored in the request context; resolution failure ends the request with 401.
func TokenAuth(db *bun.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			if header == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Authentication credentials were not provided.",
				})
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") || strings.TrimSpace(parts[1]) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Invalid token.",
				})
			}

			user, err := tokens.Resolve(c.Request().Context(), db, strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, tokens.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"detail": "Invalid token.",
					})
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user stored by TokenAuth, or nil if
// the route was not token-gated.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(UserKey).(*models.User)
	return user
}
