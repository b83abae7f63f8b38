package postgres

import (
	"context"

	"csvsample/internal/ddl"
	"csvsample/internal/schema"
	"csvsample/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds the Close method storage.Repository requires.
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

// Dialect is the Postgres SQL dialect.
var Dialect = storage.Dialect{
	Dialect: ddl.Dialect{Name: "postgres ddl", Open: `"`, Close: `"`},
	MapType: MapType,
}

// MapType maps a dataset column type to a Postgres type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.Long:
		return "BIGINT"
	case schema.Integer:
		return "INTEGER"
	case schema.Double:
		return "DOUBLE PRECISION"
	case schema.Decimal:
		return "NUMERIC"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.DateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("postgres", Dialect)
}
