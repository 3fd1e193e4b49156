package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an API user with bcrypt-hashed password. DateJoined is preserved
// for accounts imported from the legacy database.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int       `bun:"id,pk,autoincrement" json:"id"`
	Username   string    `bun:"username,notnull,unique" json:"username"`
	Password   string    `bun:"password,notnull" json:"-"`
	DateJoined time.Time `bun:"date_joined,nullzero,notnull,default:current_timestamp" json:"-"`
}
