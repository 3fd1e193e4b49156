package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	mw "github.com/padraicbc/budgetapi/middleware"
	"github.com/padraicbc/budgetapi/models"
)

type createExpenseRequest struct {
	CategoryID    int     `json:"category_id"`
	Cost          float64 `json:"cost"`
	Store         string  `json:"store"`
	PaybackAmount float64 `json:"payback_amount"`
	Date          string  `json:"date"`
	Notes         string  `json:"notes"`
}

// CreateExpense records a purchase against a category and deducts the net
// cost (cost minus payback) from the category's running amount, atomically.
func (h *Handler) CreateExpense(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req createExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Store == "" {
		return fieldError(c, "store", "This field is required.")
	}
	if !validDate(req.Date) {
		return fieldError(c, "date", "Date has wrong format. Use YYYY-MM-DD.")
	}

	if _, err := h.ownedCategory(c.Request().Context(), user.ID, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Category not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expense := &models.Expense{
		Cost:          req.Cost,
		Store:         req.Store,
		PaybackAmount: req.PaybackAmount,
		Date:          req.Date,
		Notes:         req.Notes,
		CategoryID:    req.CategoryID,
	}

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(expense).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model((*models.Category)(nil)).
			Set("current_amount = current_amount - ?", req.Cost-req.PaybackAmount).
			Where("id = ?", req.CategoryID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, expense)
}

// DeleteExpense removes an expense and credits its net cost back to the
// category's running amount.
func (h *Handler) DeleteExpense(c echo.Context) error {
	user := mw.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Expense ID must be an integer.")
	}

	expense := &models.Expense{}
	err = h.db.NewSelect().Model(expense).
		Join("INNER JOIN categories ct ON ct.id = e.category_id").
		Join("INNER JOIN user_budgets ub ON ub.budget_id = ct.budget_id").
		Where("ub.user_id = ?", user.ID).
		Where("e.id = ?", id).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Expense not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Expense)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model((*models.Category)(nil)).
			Set("current_amount = current_amount + ?", expense.Cost-expense.PaybackAmount).
			Where("id = ?", expense.CategoryID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

// GetAllExpenses lists the expenses of a category the caller owns.
func (h *Handler) GetAllExpenses(c echo.Context) error {
	user := mw.CurrentUser(c)

	categoryID, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Category ID must be an integer.")
	}

	if _, err := h.ownedCategory(c.Request().Context(), user.ID, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Category not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expenses := make([]*models.Expense, 0)
	err = h.db.NewSelect().Model(&expenses).
		Where("category_id = ?", categoryID).
		OrderExpr("date DESC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, expenses)
}
