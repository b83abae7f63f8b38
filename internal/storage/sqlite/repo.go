// Package sqlite implements storage.Repository on modernc.org/sqlite. SQLite
// has no bulk-load API, so each batch is a prepared INSERT executed per row
// inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a file path or URI, e.g. "file:csvsample.db?cache=shared".
	DSN string
	// Table may be qualified with an attached database name ("main.sales").
	Table string
}

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	// Writers serialize on the database lock anyway.
	db.SetMaxOpenConns(1)
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts rows in a single transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	q := Dialect.Dialect
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q.QuoteFQN(r.cfg.Table),
		strings.Join(q.QuoteAll(columns), ", "),
		placeholders(len(columns)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, bindAll(row)...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec runs a single statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// DB exposes the handle for read-back in tests and tooling.
func (r *Repository) DB() *sql.DB { return r.db }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// bindAll stores dates and timestamps as ISO-8601 text, matching the TEXT
// affinity MapType picks for them. Midnight values are written as plain
// dates.
func bindAll(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if tv, ok := v.(time.Time); ok {
			if tv.Hour() == 0 && tv.Minute() == 0 && tv.Second() == 0 && tv.Nanosecond() == 0 {
				out[i] = tv.Format(time.DateOnly)
			} else {
				out[i] = tv.Format("2006-01-02T15:04:05.999999999")
			}
			continue
		}
		out[i] = v
	}
	return out
}
