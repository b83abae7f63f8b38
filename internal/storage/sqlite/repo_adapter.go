package sqlite

import (
	"context"

	"csvsample/internal/ddl"
	"csvsample/internal/schema"
	"csvsample/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Execer     = (*Repository)(nil)
)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Dialect is the SQLite dialect. SQLite has no TRUNCATE.
var Dialect = storage.Dialect{
	Dialect:  ddl.Dialect{Name: "sqlite ddl", Open: `"`, Close: `"`},
	MapType:  MapType,
	Truncate: func(table string) string { return "DELETE FROM " + table },
}

// MapType maps a dataset column type to a SQLite type affinity. Booleans are
// stored as 0/1 and temporal values as ISO-8601 text.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.Long, schema.Integer, schema.Boolean:
		return "INTEGER"
	case schema.Double:
		return "REAL"
	case schema.Decimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("sqlite", Dialect)
}
