package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Token is an opaque bearer credential. The unique constraint on user_id
// keeps at most one live token per user.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tk"`

	Key     string    `bun:"key,pk" json:"key"`
	UserID  int       `bun:"user_id,notnull,unique" json:"-"`
	Created time.Time `bun:"created,nullzero,notnull,default:current_timestamp" json:"-"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}
