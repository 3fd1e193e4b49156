package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	mw "github.com/padraicbc/budgetapi/middleware"
)

// Routes wires every endpoint onto e. Public routes first, then the
// token-gated groups.
func Routes(e *echo.Echo, db *bun.DB) *Handler {
	h := New(db)

	e.GET("/health/", h.Health)
	e.POST("/auth/register/", h.Register)
	e.POST("/auth/login/", h.Login)

	token := mw.TokenAuth(db)

	auth := e.Group("/auth", token)
	auth.GET("/user/", h.UserDetails)
	auth.PUT("/update/", h.UpdateUser)
	auth.DELETE("/delete/", h.DeleteUser)
	auth.POST("/logout/", h.Logout)
	auth.GET("/get/:target/", h.LookupUser)

	budget := e.Group("/budget", token)
	budget.POST("/create/", h.CreateBudget)
	budget.POST("/update/", h.UpdateBudget)
	budget.GET("/get/:id/", h.GetBudget)
	budget.DELETE("/delete/:id/", h.DeleteBudget)
	budget.GET("/get_all_current/", h.GetAllCurrentBudgets)

	category := e.Group("/category", token)
	category.POST("/create/", h.CreateCategory)
	category.PUT("/update/", h.UpdateCategory)
	category.DELETE("/delete/:id/", h.DeleteCategory)
	category.GET("/get_all/:budget_id/", h.GetAllCategories)

	expense := e.Group("/expense", token)
	expense.POST("/create/", h.CreateExpense)
	expense.DELETE("/delete/:id/", h.DeleteExpense)
	expense.GET("/get_all/:category_id/", h.GetAllExpenses)

	return h
}
