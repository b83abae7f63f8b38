package storage

import (
	"context"
	"fmt"
	"log"
	"sync"

	"csvsample/internal/ddl"
	"csvsample/internal/schema"
)

// Dialect is the SQL a backend needs beyond inserting rows.
type Dialect struct {
	ddl.Dialect
	// MapType maps dataset column types to the backend's SQL types.
	MapType ddl.TypeMapper
	// Truncate renders the statement that empties table. Nil uses
	// TRUNCATE TABLE.
	Truncate func(quotedTable string) string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect installs (or replaces) the dialect for kind. Backends call
// it from init alongside Register.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("no dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// CreateTableSQL renders the CREATE TABLE statement for s in the dialect of
// kind.
func CreateTableSQL(kind, table string, s schema.Schema) (string, error) {
	d, err := DialectFor(kind)
	if err != nil {
		return "", err
	}
	return d.BuildCreateTableSQL(ddl.FromSchema(table, s, d.MapType))
}

// EnsureTable creates table from s unless it exists.
func EnsureTable(ctx context.Context, kind string, repo Execer, table string, s schema.Schema) error {
	stmt, err := CreateTableSQL(kind, table, s)
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	log.Printf("storage: ensured table kind=%s table=%s columns=%d", kind, table, len(s))
	return nil
}

// Truncate removes every row from table.
func Truncate(ctx context.Context, kind string, repo Execer, table string) error {
	d, err := DialectFor(kind)
	if err != nil {
		return err
	}
	q := d.QuoteFQN(table)
	stmt := "TRUNCATE TABLE " + q
	if d.Truncate != nil {
		stmt = d.Truncate(q)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}
