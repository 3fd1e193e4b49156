// cmd/migrate/main.go
// Migrates data from the legacy MySQL budgeting database into the local
// PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/budget?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/padraicbc/budgetapi/config"
	bundb "github.com/padraicbc/budgetapi/db"
	"github.com/padraicbc/budgetapi/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/budget?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	// Disable FK enforcement so we can load in bulk without strict ordering
	if _, err := pgDB.ExecContext(ctx, "SET session_replication_role = 'replica'"); err != nil {
		log.Fatalf("disable FK: %v", err)
	}
	defer func() {
		if _, err := pgDB.ExecContext(ctx, "SET session_replication_role = 'origin'"); err != nil {
			log.Printf("re-enable FK: %v", err)
		}
	}()

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"budgets", func() (int, error) { return migrateBudgets(ctx, myDB, pgDB) }},
		{"user_budgets", func() (int, error) { return migrateUserBudgets(ctx, myDB, pgDB) }},
		{"categories", func() (int, error) { return migrateCategories(ctx, myDB, pgDB) }},
		{"expenses", func() (int, error) { return migrateExpenses(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// --- helpers ---

func nullDate(n sql.NullTime) *string {
	if !n.Valid {
		return nil
	}
	v := fmtDate(n.Time)
	return &v
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// legacyBudgetName synthesises a display name from the start date, e.g.
// "Budget January 2025".
func legacyBudgetName(start time.Time) string {
	return "Budget " + start.Format("January 2006")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// --- per-table migrations ---

// migrateUsers copies users verbatim, pbkdf2_sha256 password hashes
// included – the login handler verifies those alongside bcrypt.
func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, username, password, date_joined FROM auth_user")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.User
	total := 0
	for rows.Next() {
		var r models.User
		if err := rows.Scan(&r.ID, &r.Username, &r.Password, &r.DateJoined); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// migrateBudgets defaults the name – the legacy backend_budget table has no
// name column.
func migrateBudgets(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, start_date, end_date FROM backend_budget")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Budget
	total := 0
	for rows.Next() {
		var (
			id        int
			startDate time.Time
			endDate   sql.NullTime
		)
		if err := rows.Scan(&id, &startDate, &endDate); err != nil {
			return total, err
		}
		batch = append(batch, models.Budget{
			ID:        id,
			Name:      legacyBudgetName(startDate),
			StartDate: fmtDate(startDate),
			EndDate:   nullDate(endDate),
		})
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateUserBudgets(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, user_id, budget_id, date_added FROM backend_userbudgetmap")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.UserBudget
	total := 0
	for rows.Next() {
		var r models.UserBudget
		if err := rows.Scan(&r.ID, &r.UserID, &r.BudgetID, &r.DateAdded); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateCategories(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, name, start_amount, current_amount, budget_id FROM backend_category")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Category
	total := 0
	for rows.Next() {
		var r models.Category
		if err := rows.Scan(&r.ID, &r.Name, &r.StartAmount, &r.CurrentAmount, &r.BudgetID); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateExpenses(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, cost, store, payback_amount, date, notes, category_id
		 FROM backend_expense`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Expense
	total := 0
	for rows.Next() {
		var (
			id            int
			cost          float64
			store         string
			paybackAmount float64
			date          time.Time
			notes         sql.NullString
			categoryID    int
		)
		if err := rows.Scan(&id, &cost, &store, &paybackAmount, &date, &notes, &categoryID); err != nil {
			return total, err
		}
		batch = append(batch, models.Expense{
			ID:            id,
			Cost:          cost,
			Store:         store,
			PaybackAmount: paybackAmount,
			Date:          fmtDate(date),
			Notes:         notes.String,
			CategoryID:    categoryID,
		})
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	seqs := []struct{ seq, table, col string }{
		{"users_id_seq", "users", "id"},
		{"budgets_id_seq", "budgets", "id"},
		{"user_budgets_id_seq", "user_budgets", "id"},
		{"categories_id_seq", "categories", "id"},
		{"expenses_id_seq", "expenses", "id"},
	}
	for _, s := range seqs {
		q := fmt.Sprintf(
			"SELECT setval('%s', COALESCE((SELECT MAX(%s) FROM %s), 1))",
			s.seq, s.col, s.table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", s.seq, err)
		}
	}
	log.Println("sequences reset")
}
