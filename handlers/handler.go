package handlers

import "github.com/uptrace/bun"

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db *bun.DB
}

// New creates a Handler with the given database connection.
func New(db *bun.DB) *Handler {
	return &Handler{db: db}
}
