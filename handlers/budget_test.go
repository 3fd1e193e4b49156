package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/budgetapi/models"
)

func TestCreateBudget(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")

	rec, body := doJSON(t, e, http.MethodPost, "/budget/create/", token, map[string]interface{}{
		"name":       "Test Budget",
		"start_date": "2025-01-01",
		"end_date":   "2025-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Test Budget", body["name"])
	assert.Equal(t, "2025-01-01", body["start_date"])
	assert.Equal(t, "2025-12-31", body["end_date"])
}

func TestCreateBudgetValidation(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")

	// Missing name
	rec, body := doJSON(t, e, http.MethodPost, "/budget/create/", token, map[string]interface{}{
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "name")

	// Bad date
	rec, body = doJSON(t, e, http.MethodPost, "/budget/create/", token, map[string]interface{}{
		"name":       "Bad Date",
		"start_date": "01/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "start_date")

	// No token
	rec, _ = doJSON(t, e, http.MethodPost, "/budget/create/", "", map[string]interface{}{
		"name":       "Nope",
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetBudgetOwnershipFilter(t *testing.T) {
	e, _ := newTestServer(t)
	owner, _ := registerUser(t, e, "owner")
	stranger, _ := registerUser(t, e, "stranger")

	id := createBudget(t, e, owner, "Mine", ptr("2025-12-31"))

	rec, body := doJSON(t, e, http.MethodGet, fmt.Sprintf("/budget/get/%d/", id), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mine", body["name"])

	// Another authenticated user cannot see it
	rec, body = doJSON(t, e, http.MethodGet, fmt.Sprintf("/budget/get/%d/", id), stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Budget not found.", body["detail"])
}

func TestUpdateBudget(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	id := createBudget(t, e, token, "Before", ptr("2025-12-31"))

	// Missing id
	rec, body := doJSON(t, e, http.MethodPost, "/budget/update/", token, map[string]interface{}{
		"name":       "After",
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Budget ID is required.", body["detail"])

	// Unknown id
	rec, _ = doJSON(t, e, http.MethodPost, "/budget/update/", token, map[string]interface{}{
		"id":         99999,
		"name":       "After",
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Success, end date cleared to make the budget ongoing
	rec, body = doJSON(t, e, http.MethodPost, "/budget/update/", token, map[string]interface{}{
		"id":         id,
		"name":       "After",
		"start_date": "2025-02-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "After", body["name"])
	assert.Nil(t, body["end_date"])
}

func TestUpdateBudgetNotOwned(t *testing.T) {
	e, _ := newTestServer(t)
	owner, _ := registerUser(t, e, "owner")
	stranger, _ := registerUser(t, e, "stranger")
	id := createBudget(t, e, owner, "Mine", nil)

	rec, _ := doJSON(t, e, http.MethodPost, "/budget/update/", stranger, map[string]interface{}{
		"id":         id,
		"name":       "Hijacked",
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAllCurrentBudgets(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	other, _ := registerUser(t, e, "other")

	createBudget(t, e, token, "Ongoing", nil)
	createBudget(t, e, token, "Finished", ptr("2025-12-31"))
	createBudget(t, e, other, "Someone else's ongoing", nil)

	rec, list := doJSONList(t, e, http.MethodGet, "/budget/get_all_current/", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, "Ongoing", list[0]["name"])
	assert.Nil(t, list[0]["end_date"])
}

func TestDeleteBudgetCascades(t *testing.T) {
	e, db := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	id := createBudget(t, e, token, "Doomed", nil)
	catID := createCategory(t, e, token, id, "Groceries", 400)

	rec, _ := doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id": catID,
		"cost":        25.50,
		"store":       "Corner Shop",
		"date":        "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/budget/delete/%d/", id), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Budget)(nil),
		(*models.UserBudget)(nil),
		(*models.Category)(nil),
		(*models.Expense)(nil),
	} {
		count, err := db.NewSelect().Model(model).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "%T rows left after cascade", model)
	}

	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/budget/get/%d/", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBudgetNotOwned(t *testing.T) {
	e, _ := newTestServer(t)
	owner, _ := registerUser(t, e, "owner")
	stranger, _ := registerUser(t, e, "stranger")
	id := createBudget(t, e, owner, "Mine", nil)

	rec, _ := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/budget/delete/%d/", id), stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still there for the owner
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/budget/get/%d/", id), owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
