package mssql

import (
	"context"
	"fmt"
	"strings"

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

// Dialect is the SQL Server dialect. SQL Server has no CREATE TABLE IF NOT
// EXISTS, so the statement is guarded with OBJECT_ID.
var Dialect = storage.Dialect{
	Dialect: ddl.Dialect{
		Name:  "mssql ddl",
		Open:  "[",
		Close: "]",
		Wrap: func(fqn, body string) string {
			return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
				strings.ReplaceAll(fqn, "'", "''"), fqn, strings.ReplaceAll(body, "\n  ", "\n    "))
		},
	},
	MapType: MapType,
}

// MapType maps a dataset column type to a SQL Server type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.Long:
		return "BIGINT"
	case schema.Integer:
		return "INT"
	case schema.Double:
		return "FLOAT"
	case schema.Decimal:
		return "DECIMAL(38, 10)"
	case schema.Boolean:
		return "BIT"
	case schema.Date:
		return "DATE"
	case schema.DateTime:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("mssql", Dialect)
}
