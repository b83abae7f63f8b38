package mysql

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

// Dialect is the MySQL dialect.
var Dialect = storage.Dialect{
	Dialect: ddl.Dialect{Name: "mysql ddl", Open: "`", Close: "`"},
	MapType: MapType,
}

// MapType maps a dataset column type to a MySQL type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.Long:
		return "BIGINT"
	case schema.Integer:
		return "INT"
	case schema.Double:
		return "DOUBLE"
	case schema.Decimal:
		return "DECIMAL(38, 10)"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.DateTime:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("mysql", Dialect)
}
