package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpenseAdjustsRunningAmount(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	budgetID := createBudget(t, e, token, "Home", nil)
	catID := createCategory(t, e, token, budgetID, "Groceries", 400)

	rec, body := doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id":    catID,
		"cost":           60.0,
		"store":          "Corner Shop",
		"payback_amount": 10.0,
		"date":           "2025-03-10",
		"notes":          "shared with flatmate",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 60.0, body["cost"])
	assert.Equal(t, "Corner Shop", body["store"])

	// Net 50 deducted from the category
	rec, list := doJSONList(t, e, http.MethodGet, fmt.Sprintf("/category/get_all/%d/", budgetID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, 350.0, list[0]["current_amount"])
}

func TestCreateExpenseValidation(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	budgetID := createBudget(t, e, token, "Home", nil)
	catID := createCategory(t, e, token, budgetID, "Groceries", 400)

	// Missing store
	rec, body := doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id": catID,
		"cost":        10.0,
		"date":        "2025-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "store")

	// Bad date
	rec, body = doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id": catID,
		"cost":        10.0,
		"store":       "Shop",
		"date":        "10/03/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "date")

	// Unknown category
	rec, _ = doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id": 99999,
		"cost":        10.0,
		"store":       "Shop",
		"date":        "2025-03-10",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteExpenseRefundsCategory(t *testing.T) {
	e, _ := newTestServer(t)
	token, _ := registerUser(t, e, "testuser")
	budgetID := createBudget(t, e, token, "Home", nil)
	catID := createCategory(t, e, token, budgetID, "Groceries", 400)

	rec, body := doJSON(t, e, http.MethodPost, "/expense/create/", token, map[string]interface{}{
		"category_id": catID,
		"cost":        100.0,
		"store":       "Shop",
		"date":        "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	expenseID := int(body["id"].(float64))

	rec, _ = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/expense/delete/%d/", expenseID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, list := doJSONList(t, e, http.MethodGet, fmt.Sprintf("/category/get_all/%d/", budgetID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, 400.0, list[0]["current_amount"])

	rec, elist := doJSONList(t, e, http.MethodGet, fmt.Sprintf("/expense/get_all/%d/", catID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, elist)
}

func TestExpenseOwnershipFilter(t *testing.T) {
	e, _ := newTestServer(t)
	owner, _ := registerUser(t, e, "owner")
	stranger, _ := registerUser(t, e, "stranger")
	budgetID := createBudget(t, e, owner, "Mine", nil)
	catID := createCategory(t, e, owner, budgetID, "Groceries", 400)

	rec, body := doJSON(t, e, http.MethodPost, "/expense/create/", owner, map[string]interface{}{
		"category_id": catID,
		"cost":        10.0,
		"store":       "Shop",
		"date":        "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	expenseID := int(body["id"].(float64))

	// A different user can neither list nor delete through the category
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/expense/get_all/%d/", catID), stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/expense/delete/%d/", expenseID), stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
