package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserBudget ties a budget to the user who owns it. Every budget query is
// filtered through this join by caller identity.
type UserBudget struct {
	bun.BaseModel `bun:"table:user_budgets,alias:ub"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	UserID    int       `bun:"user_id,notnull,unique:user_budgets_no_dupes" json:"userID"`
	BudgetID  int       `bun:"budget_id,notnull,unique:user_budgets_no_dupes" json:"budgetID"`
	DateAdded time.Time `bun:"date_added,nullzero,notnull,default:current_timestamp" json:"dateAdded"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Budget *Budget `bun:"rel:belongs-to,join:budget_id=id" json:"-"`
}
