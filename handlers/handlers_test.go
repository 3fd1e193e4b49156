package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	bundb "github.com/padraicbc/budgetapi/db"
)

const testPassword = "mypass12345"

func newTestServer(t *testing.T) (*echo.Echo, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bundb.CreateTables(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })

	e := echo.New()
	Routes(e, db)
	return e, db
}

// doJSON performs a request against the echo instance and returns the
// recorder plus the decoded JSON body (nil for empty bodies).
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// doJSONList is doJSON for endpoints returning a JSON array.
func doJSONList(t *testing.T, e *echo.Echo, method, path, token string) (*httptest.ResponseRecorder, []map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded []map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// registerUser registers a fresh user and returns its token key and id.
func registerUser(t *testing.T, e *echo.Echo, username string) (string, int) {
	t.Helper()

	rec, body := doJSON(t, e, http.MethodPost, "/auth/register/", "", map[string]string{
		"username":  username,
		"password":  testPassword,
		"password2": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register %s: %s", username, rec.Body.String())

	token, ok := body["token"].(string)
	require.True(t, ok, "token missing from register response")

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok, "user missing from register response")

	return token, int(user["id"].(float64))
}

// createBudget creates a budget owned by the token's user and returns its id.
func createBudget(t *testing.T, e *echo.Echo, token, name string, endDate *string) int {
	t.Helper()

	payload := map[string]interface{}{
		"name":       name,
		"start_date": "2025-01-01",
	}
	if endDate != nil {
		payload["end_date"] = *endDate
	}
	rec, body := doJSON(t, e, http.MethodPost, "/budget/create/", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, "create budget: %s", rec.Body.String())
	return int(body["id"].(float64))
}

// createCategory creates a category in a budget and returns its id.
func createCategory(t *testing.T, e *echo.Echo, token string, budgetID int, name string, amount float64) int {
	t.Helper()

	rec, body := doJSON(t, e, http.MethodPost, "/category/create/", token, map[string]interface{}{
		"budget_id":    budgetID,
		"name":         name,
		"start_amount": amount,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "create category: %s", rec.Body.String())
	return int(body["id"].(float64))
}

func ptr(s string) *string { return &s }
