package handlers

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	mw "github.com/padraicbc/budgetapi/middleware"
	"github.com/padraicbc/budgetapi/models"
	"github.com/padraicbc/budgetapi/tokens"
)

const minPasswordLen = 8

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username string `json:"username"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// verifyPassword checks a stored hash against a candidate password. Native
// hashes are bcrypt; pbkdf2_sha256 hashes carried over by cmd/migrate are
// still honoured so imported users can log in with their old password.
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "pbkdf2_sha256$") {
		return verifyPBKDF2(stored, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// verifyPBKDF2 checks a pbkdf2_sha256$<iterations>$<salt>$<base64 hash> value.
func verifyPBKDF2(stored, password string) bool {
	parts := strings.SplitN(stored, "$", 4)
	if len(parts) != 4 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}
	derived := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// validatePassword applies the password strength policy: a minimum length,
// not entirely numeric, not too similar to the username.
func validatePassword(username, password string) string {
	if len(password) < minPasswordLen {
		return "This password is too short. It must contain at least 8 characters."
	}

	numeric := true
	for _, r := range password {
		if r < '0' || r > '9' {
			numeric = false
			break
		}
	}
	if numeric {
		return "This password is entirely numeric."
	}

	lu := strings.ToLower(username)
	lp := strings.ToLower(password)
	if lu != "" && (strings.Contains(lp, lu) || strings.Contains(lu, lp)) {
		return "The password is too similar to the username."
	}

	return ""
}

// Register creates a new user and issues its token, both inside a single
// transaction so a token failure never leaves an orphaned user row.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" {
		return fieldError(c, "username", "This field may not be blank.")
	}
	if req.Password != req.Password2 {
		return fieldError(c, "password", "Password fields didn't match.")
	}
	if msg := validatePassword(req.Username, req.Password); msg != "" {
		return fieldError(c, "password", msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := &models.User{Username: req.Username, Password: string(hash)}
	var token *models.Token
	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return err
		}
		token, err = tokens.IssueOrGet(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		// A racing duplicate loses on the unique constraint, same as an
		// up-front existence check would report.
		if isUniqueViolation(err) {
			return fieldError(c, "username", "A user with that username already exists.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, authResponse{User: user, Token: token.Key})
}

// Login verifies credentials and returns the user's token, minting one only
// if none exists. Unknown usernames and wrong passwords get the same reply.
func (h *Handler) Login(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creds.Username = strings.TrimSpace(creds.Username)

	user := &models.User{}
	err := h.db.NewSelect().Model(user).
		Where("username = ?", creds.Username).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !verifyPassword(user.Password, creds.Password) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})
	}

	token, err := tokens.IssueOrGet(c.Request().Context(), h.db, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token.Key,
		"user":  user,
	})
}

// UserDetails returns the authenticated caller.
func (h *Handler) UserDetails(c echo.Context) error {
	return c.JSON(http.StatusOK, mw.CurrentUser(c))
}

// UpdateUser changes the caller's username. The token is untouched.
func (h *Handler) UpdateUser(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" {
		return fieldError(c, "username", "This field may not be blank.")
	}

	taken, err := h.db.NewSelect().Model((*models.User)(nil)).
		Where("username = ?", req.Username).
		Where("id != ?", user.ID).
		Exists(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if taken {
		return fieldError(c, "username", "A user with that username already exists.")
	}

	user.Username = req.Username
	_, err = h.db.NewUpdate().Model(user).
		Column("username").
		WherePK().
		Exec(c.Request().Context())
	if err != nil {
		if isUniqueViolation(err) {
			return fieldError(c, "username", "A user with that username already exists.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// Logout revokes the caller's token. Revoking a token that vanished between
// resolution and deletion is treated as already logged out.
func (h *Handler) Logout(c echo.Context) error {
	user := mw.CurrentUser(c)

	if err := tokens.Revoke(c.Request().Context(), h.db, user.ID); err != nil && !errors.Is(err, tokens.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteUser removes the caller's account: token, budget ownership rows and
// the user row go in one transaction.
func (h *Handler) DeleteUser(c echo.Context) error {
	user := mw.CurrentUser(c)

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Token)(nil)).
			Where("user_id = ?", user.ID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.UserBudget)(nil)).
			Where("user_id = ?", user.ID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.User)(nil)).
			Where("id = ?", user.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// LookupUser resolves /auth/get/:target/ for any authenticated caller.
// Numeric targets are tried as IDs first; only a failed parse falls through
// to the username lookup, so a numeric username is unreachable by name.
func (h *Handler) LookupUser(c echo.Context) error {
	target := c.Param("target")

	user := &models.User{}
	q := h.db.NewSelect().Model(user)
	if id, err := strconv.Atoi(target); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("username = ?", target)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}
