package models

import "github.com/uptrace/bun"

// Budget is a spending plan over a date range. A null end date means the
// budget is ongoing.
type Budget struct {
	bun.BaseModel `bun:"table:budgets,alias:b"`

	ID        int     `bun:"id,pk,autoincrement" json:"id"`
	Name      string  `bun:"name,notnull" json:"name"`
	StartDate string  `bun:"start_date,notnull,type:date" json:"start_date"`
	EndDate   *string `bun:"end_date,type:date" json:"end_date"`

	Categories []*Category `bun:"rel:has-many,join:id=budget_id" json:"categories,omitempty"`
}
