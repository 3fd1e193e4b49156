package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	mw "github.com/padraicbc/budgetapi/middleware"
	"github.com/padraicbc/budgetapi/models"
)

const dateLayout = "2006-01-02"

type budgetRequest struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func (r *budgetRequest) validate(c echo.Context) error {
	if r.Name == "" {
		return fieldError(c, "name", "This field is required.")
	}
	if !validDate(r.StartDate) {
		return fieldError(c, "start_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if r.EndDate != nil && !validDate(*r.EndDate) {
		return fieldError(c, "end_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	return nil
}

// ownedBudget loads a budget by id, restricted to budgets joined to the
// caller. Returns sql.ErrNoRows for both "missing" and "not yours".
func (h *Handler) ownedBudget(ctx context.Context, userID, budgetID int) (*models.Budget, error) {
	budget := &models.Budget{}
	err := h.db.NewSelect().Model(budget).
		Join("INNER JOIN user_budgets ub ON ub.budget_id = b.id").
		Where("ub.user_id = ?", userID).
		Where("b.id = ?", budgetID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// ownsBudget reports whether the caller has an ownership row for the budget.
func (h *Handler) ownsBudget(ctx context.Context, userID, budgetID int) (bool, error) {
	return h.db.NewSelect().Model((*models.UserBudget)(nil)).
		Where("user_id = ?", userID).
		Where("budget_id = ?", budgetID).
		Exists(ctx)
}

// CreateBudget inserts a budget and its ownership row in one transaction.
func (h *Handler) CreateBudget(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req budgetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(c); err != nil {
		return err
	}

	budget := &models.Budget{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(budget).Exec(ctx); err != nil {
			return err
		}
		join := &models.UserBudget{UserID: user.ID, BudgetID: budget.ID}
		_, err := tx.NewInsert().Model(join).Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, budget)
}

// UpdateBudget replaces the name and dates of a budget the caller owns.
func (h *Handler) UpdateBudget(c echo.Context) error {
	user := mw.CurrentUser(c)

	var req budgetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ID == 0 {
		return detailError(c, http.StatusBadRequest, "Budget ID is required.")
	}

	budget, err := h.ownedBudget(c.Request().Context(), user.ID, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Budget not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := req.validate(c); err != nil {
		return err
	}

	budget.Name = req.Name
	budget.StartDate = req.StartDate
	budget.EndDate = req.EndDate

	_, err = h.db.NewUpdate().Model(budget).
		Column("name", "start_date", "end_date").
		WherePK().
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, budget)
}

// GetBudget returns one of the caller's budgets with its categories.
func (h *Handler) GetBudget(c echo.Context) error {
	user := mw.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Budget ID must be an integer.")
	}

	budget := &models.Budget{}
	err = h.db.NewSelect().Model(budget).
		Relation("Categories").
		Join("INNER JOIN user_budgets ub ON ub.budget_id = b.id").
		Where("ub.user_id = ?", user.ID).
		Where("b.id = ?", id).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "Budget not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, budget)
}

// DeleteBudget removes a budget the caller owns along with its categories,
// their expenses and all ownership rows, in one transaction.
func (h *Handler) DeleteBudget(c echo.Context) error {
	user := mw.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return detailError(c, http.StatusBadRequest, "Budget ID must be an integer.")
	}

	owns, err := h.ownsBudget(c.Request().Context(), user.ID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !owns {
		return notFound(c, "Budget not found.")
	}

	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Expense)(nil)).
			Where("category_id IN (SELECT id FROM categories WHERE budget_id = ?)", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Category)(nil)).
			Where("budget_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.UserBudget)(nil)).
			Where("budget_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.Budget)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

// GetAllCurrentBudgets returns the caller's ongoing budgets (null end date).
func (h *Handler) GetAllCurrentBudgets(c echo.Context) error {
	user := mw.CurrentUser(c)

	budgets := make([]*models.Budget, 0)
	err := h.db.NewSelect().Model(&budgets).
		Join("INNER JOIN user_budgets ub ON ub.budget_id = b.id").
		Where("ub.user_id = ?", user.ID).
		Where("b.end_date IS NULL").
		OrderExpr("b.start_date DESC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, budgets)
}
