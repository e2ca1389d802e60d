package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	sqlite3 "modernc.org/sqlite"

	"keuanganku/internal/core"
)

const transactionColumns = "id, user_id, title, description, amount, type, category, occurred_at, created_at, synced"

// SQLiteRepository is the durable transaction store. All reads order by
// occurred_at descending with rowid as the tie-break, so two records on the
// same date always come back in insertion order.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert stores a new transaction. A colliding id fails with
// core.ErrDuplicateID; callers generate random ids so this should not happen.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, title, description, amount, type, category, occurred_at, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Amount.String(), string(t.Kind),
		t.Category, t.OccurredAt.UnixMilli(), t.CreatedAt.UnixMilli(), boolToInt(t.Synced))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert transaction %s: %w", t.ID, core.ErrDuplicateID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"title", t.Title,
		"amount", t.Amount.String(),
		"type", string(t.Kind))

	return nil
}

// Update replaces the record matched by id. A missing id fails with
// core.ErrNotFound instead of silently updating zero rows.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET user_id = ?, title = ?, description = ?, amount = ?, type = ?, category = ?, occurred_at = ?, synced = ?
		WHERE id = ?`,
		t.UserID, t.Title, t.Description, t.Amount.String(), string(t.Kind),
		t.Category, t.OccurredAt.UnixMilli(), boolToInt(t.Synced), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}
	slog.InfoContext(ctx, "All transactions deleted")
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY occurred_at DESC, rowid ASC`)
}

func (r *SQLiteRepository) GetByKind(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE type = ? ORDER BY occurred_at DESC, rowid ASC`,
		string(kind))
}

// GetByDateRange returns records with start <= occurred_at <= end, newest first.
func (r *SQLiteRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE occurred_at BETWEEN ? AND ? ORDER BY occurred_at DESC, rowid ASC`,
		start.UnixMilli(), end.UnixMilli())
}

func (r *SQLiteRepository) GetUnsynced(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE synced = 0 ORDER BY occurred_at DESC, rowid ASC`)
}

// Search matches the query case-insensitively against title, category and
// description.
func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]core.Transaction, error) {
	pattern := "%" + query + "%"
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE title LIKE ? OR category LIKE ? OR description LIKE ?
		 ORDER BY occurred_at DESC, rowid ASC`,
		pattern, pattern, pattern)
}

// MarkSynced flips the synced flag to true. The flag never reverses.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark synced rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark transaction %s synced: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// SumByKind totals amounts of one kind within the range. An empty range sums
// to zero, never an absent value; downstream balance arithmetic relies on it.
func (r *SQLiteRepository) SumByKind(ctx context.Context, kind core.Kind, start, end time.Time) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT amount FROM transactions WHERE type = ? AND occurred_at BETWEEN ? AND ?`,
		string(kind), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum by kind: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate amounts: %w", err)
	}
	return total, nil
}

// SumByCategory groups expense amounts by category within the range.
// Categories with no expense in range are absent from the map, not zero.
func (r *SQLiteRepository) SumByCategory(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM transactions WHERE type = 'expense' AND occurred_at BETWEEN ? AND ?`,
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, raw string
		if err := rows.Scan(&category, &raw); err != nil {
			return nil, fmt.Errorf("scan category amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", raw, err)
		}
		totals[category] = totals[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category amounts: %w", err)
	}
	return totals, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var result []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		rawAmount  string
		rawKind    string
		occurredAt int64
		createdAt  int64
		synced     int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &rawAmount,
		&rawKind, &t.Category, &occurredAt, &createdAt, &synced); err != nil {
		return core.Transaction{}, err
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", rawAmount, err)
	}

	t.Amount = amount
	t.Kind = core.Kind(rawKind)
	t.OccurredAt = time.UnixMilli(occurredAt)
	t.CreatedAt = time.UnixMilli(createdAt)
	t.Synced = synced != 0
	return t, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	// SQLITE_CONSTRAINT and its PRIMARYKEY/UNIQUE extended codes
	switch liteErr.Code() {
	case 19, 1555, 2067:
		return true
	}
	return false
}
