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

type createCategoryRequest struct {
	BudgetID    int     `json:"budget_id"`
	Name        string  `json:"name"`
	StartAmount float64 `json:"start_amount"`
}

type updateCategoryRequest struct {
	ID            int      `json:"id"`
	Name          *string  `json:"name"`
	CurrentAmount *float64 `json:"current_amount"`
}

// ownedCategory loads a category by id, restricted to categories whose
// budget is joined to the caller.
func (h *Handler) ownedCategory(ctx context.Context, userID, categoryID int) (*models.Category, error) {
	category := &models.Category{}
	err := h.db.NewSelect().Model(category).
		Join("INNER JOIN user_budgets ub ON ub.budget_id = ct.budget_id").
		Where("ub.user_id = ?", userID).
		Where("ct.id = ?", categoryID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CreateCategory adds a category to one of the caller's budgets. The running
// amount starts equal to the starting amount.
func (h *Handler) CreateCategory(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fieldError(c, "name", "This field is required.")
	}

	owns, err := h.ownsBudget(c.Request().Context(), user.ID, req.BudgetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !owns {
		return notFound(c, "Budget not found.")
	}

	category := &models.Category{
		Name:          req.Name,
		StartAmount:   req.StartAmount,
		CurrentAmount: req.StartAmount,
		BudgetID:      req.BudgetID,
	}
	if _, err := h.db.NewInsert().Model(category).Exec(c.Request().Context()); err != nil {
		if isUniqueViolation(err) {
			return fieldError(c, "name", "A category with that name already exists in this budget.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory renames a category or overrides its running amount.
func (h *Handler) UpdateCategory(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req updateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ID == 0 {
		return detailError(c, http.StatusBadRequest, "Category ID is required.")
	}

	category, err := h.ownedCategory(c.Request().Context(), user.ID, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Category not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		if *req.Name == "" {
			return fieldError(c, "name", "This field may not be blank.")
		}
		category.Name = *req.Name
	}
	if req.CurrentAmount != nil {
		category.CurrentAmount = *req.CurrentAmount
	}

	_, err = h.db.NewUpdate().Model(category).
		Column("name", "current_amount").
		WherePK().
		Exec(c.Request().Context())
	if err != nil {
		if isUniqueViolation(err) {
			return fieldError(c, "name", "A category with that name already exists in this budget.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category and its expenses in one transaction.
func (h *Handler) DeleteCategory(c echo.Context) error {
	user := mw.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Category ID must be an integer.")
	}

	if _, err := h.ownedCategory(c.Request().Context(), user.ID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Category not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Expense)(nil)).
			Where("category_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.Category)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

// GetAllCategories lists the categories of one of the caller's budgets.
func (h *Handler) GetAllCategories(c echo.Context) error {
	user := mw.CurrentUser(c)

	budgetID, err := strconv.Atoi(c.Param("budget_id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Budget ID must be an integer.")
	}

	owns, err := h.ownsBudget(c.Request().Context(), user.ID, budgetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !owns {
		return notFound(c, "Budget not found.")
	}

	categories := make([]*models.Category, 0)
	err = h.db.NewSelect().Model(&categories).
		Where("budget_id = ?", budgetID).
		OrderExpr("name ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, categories)
}
