package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendlite/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the collection in a SQLite database. Load/Save
// keep blob-store semantics (the whole ordered collection at a time), which
// is what the store's persistence boundary expects; the audit_log table is
// fed by the change-feed worker.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
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

// Load reads the full collection in stored order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, category, amount_cents, date, note FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []core.Transaction
	for rows.Next() {
		var (
			t     core.Transaction
			kind  string
			cents int64
		)
		if err := rows.Scan(&t.ID, &kind, &t.Category, &cents, &t.Date, &t.Note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.ParseKind(kind)
		t.Amount = core.Money{Cents: cents}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

// Save replaces the stored collection with the given one, preserving order
// through the position column. The rewrite runs in one transaction so readers
// never observe a partially saved collection.
func (r *SQLiteRepository) Save(ctx context.Context, records []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, kind, category, amount_cents, date, note, position) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range records {
		if _, err := stmt.ExecContext(ctx, t.ID, string(t.Kind), t.Category, t.Amount.Cents, t.Date, t.Note, i); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Collection saved to SQLite", "count", len(records))
	return nil
}

// AuditEntry is one row of the change-feed audit trail.
type AuditEntry struct {
	ID            int64
	Op            string
	TransactionID string
	OccurredAt    time.Time
}

// AppendAudit records one change event.
func (r *SQLiteRepository) AppendAudit(ctx context.Context, op, transactionID string, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (op, transaction_id, occurred_at) VALUES (?, ?, ?)`,
		op, transactionID, occurredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// CountAudit returns the number of audit entries, for the worker's periodic
// report.
func (r *SQLiteRepository) CountAudit(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}
