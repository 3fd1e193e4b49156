// Package tokens manages the opaque bearer tokens that prove identity.
// Each user has at most one live token; issuing again returns the same key.
package tokens

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/padraicbc/budgetapi/models"
)

// keyBytes of entropy per token; hex-encoded to a 40-char key.
const keyBytes = 20

// ErrNotFound indicates no live token matched the lookup.
var ErrNotFound = errors.New("token not found")

// NewKey returns a fresh cryptographically random token key.
func NewKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueOrGet returns the user's live token, minting and persisting a new one
// only if none exists. db may be a *bun.DB or an in-flight bun.Tx.
func IssueOrGet(ctx context.Context, db bun.IDB, userID int) (*models.Token, error) {
	token := &models.Token{}
	err := db.NewSelect().Model(token).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	key, err := NewKey()
	if err != nil {
		return nil, err
	}

	token = &models.Token{Key: key, UserID: userID}
	if _, err := db.NewInsert().Model(token).Exec(ctx); err != nil {
		// A concurrent caller may have minted the token between our select
		// and insert; the user_id unique constraint flags that. Return theirs.
		if isUniqueViolation(err) {
			existing := &models.Token{}
			if selErr := db.NewSelect().Model(existing).
				Where("user_id = ?", userID).
				Scan(ctx); selErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("inserting token: %w", err)
	}
	return token, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint")
}

// Revoke deletes the user's live token. Returns ErrNotFound if the user had
// none; callers treating revocation as idempotent can ignore that case.
func Revoke(ctx context.Context, db bun.IDB, userID int) error {
	res, err := db.NewDelete().Model((*models.Token)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Resolve maps a token key to its live user. Returns ErrNotFound when the key
// does not exist or its user is gone.
func Resolve(ctx context.Context, db bun.IDB, key string) (*models.User, error) {
	token := &models.Token{}
	err := db.NewSelect().Model(token).
		Relation("User").
		Where("tk.key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if token.User == nil {
		return nil, ErrNotFound
	}
	return token.User, nil
}
