package models

import "github.com/uptrace/bun"

// Expense is a single purchase against a category. PaybackAmount is money
// expected back (returns, shared costs), so the net hit on the category is
// cost minus payback.
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:e"`

	ID            int     `bun:"id,pk,autoincrement" json:"id"`
	Cost          float64 `bun:"cost,notnull" json:"cost"`
	Store         string  `bun:"store,notnull" json:"store"`
	PaybackAmount float64 `bun:"payback_amount,notnull,default:0" json:"payback_amount"`
	Date          string  `bun:"date,notnull,type:date" json:"date"`
	Notes         string  `bun:"notes" json:"notes"`
	CategoryID    int     `bun:"category_id,notnull" json:"category_id"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"-"`
}
