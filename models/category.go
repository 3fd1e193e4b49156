package models

import "github.com/uptrace/bun"

// Category is a named slice of a budget. CurrentAmount is the running
// balance after expenses; names are unique within a budget.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:ct"`

	ID            int     `bun:"id,pk,autoincrement" json:"id"`
	Name          string  `bun:"name,notnull,unique:categories_no_dupes" json:"name"`
	StartAmount   float64 `bun:"start_amount,notnull" json:"start_amount"`
	CurrentAmount float64 `bun:"current_amount,notnull" json:"current_amount"`
	BudgetID      int     `bun:"budget_id,notnull,unique:categories_no_dupes" json:"budget_id"`

	Budget *Budget `bun:"rel:belongs-to,join:budget_id=id" json:"-"`
}
