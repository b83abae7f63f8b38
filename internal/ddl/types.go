// Package ddl is a small, backend-agnostic model of a CREATE TABLE statement
// plus a renderer parameterized by SQL dialect. Backends under
// internal/storage supply the dialect and the column type mapping.
package ddl

import "csvsample/internal/schema"

// ColumnDef is one column of a table definition. Name is unquoted; quoting
// happens at render time.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef is a possibly schema-qualified table name ("public.sales") and its
// ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TypeMapper maps a dataset column type to a backend SQL type.
type TypeMapper func(schema.ColumnType) string

// FromSchema builds a TableDef for table from s. Column names are the
// normalized names; every column is nullable since a later file may carry
// empty cells the sample did not.
func FromSchema(table string, s schema.Schema, mapType TypeMapper) TableDef {
	cols := make([]ColumnDef, len(s))
	for i, c := range s {
		cols[i] = ColumnDef{Name: c.Normalized, SQLType: mapType(c.Type), Nullable: true}
	}
	return TableDef{FQN: table, Columns: cols}
}
