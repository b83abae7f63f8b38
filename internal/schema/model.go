// Package schema models a dataset's columns and derives them from a sample of
// CSV rows, or validates an explicitly supplied [name, TYPE] list against the
// file header.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is a dataset column type.
type ColumnType string

const (
	String   ColumnType = "STRING"
	Decimal  ColumnType = "DECIMAL"
	Long     ColumnType = "LONG"
	Double   ColumnType = "DOUBLE"
	Date     ColumnType = "DATE"
	DateTime ColumnType = "DATETIME"
	Integer  ColumnType = "INTEGER"
	Boolean  ColumnType = "BOOLEAN"
)

var (
	// ErrInvalidDataType is returned for a type name outside the ColumnType set.
	ErrInvalidDataType = errors.New("schema: invalid data type")
	// ErrColumnMismatch is returned when an explicit schema and the file
	// header disagree on the number of columns.
	ErrColumnMismatch = errors.New("schema: column count mismatch")
)

var validTypes = map[ColumnType]struct{}{
	String: {}, Decimal: {}, Long: {}, Double: {},
	Date: {}, DateTime: {}, Integer: {}, Boolean: {},
}

// ParseColumnType maps a case-insensitive type name to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	t := ColumnType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q (want one of STRING, DECIMAL, LONG, DOUBLE, DATE, DATETIME, INTEGER, BOOLEAN)", ErrInvalidDataType, s)
	}
	return t, nil
}

// Numeric reports whether values of t are numbers.
func (t ColumnType) Numeric() bool {
	switch t {
	case Decimal, Long, Double, Integer:
		return true
	}
	return false
}

// Temporal reports whether values of t are dates or timestamps.
func (t ColumnType) Temporal() bool { return t == Date || t == DateTime }

// Column is one dataset column.
type Column struct {
	// Name is the header text as it appears in the file.
	Name string `json:"name"`
	// Normalized is Name as a lowercase SQL-safe identifier, unique within
	// the schema.
	Normalized string     `json:"normalized"`
	Type       ColumnType `json:"type"`

	// Layout is the time.Parse layout detected for DATE and DATETIME columns.
	Layout string `json:"layout,omitempty"`
	// Nullable is set when any sampled value was empty.
	Nullable bool `json:"nullable"`
	// Distinct is the number of distinct non-empty sampled values.
	Distinct int `json:"distinct"`
}

// Schema is an ordered list of columns.
type Schema []Column

// Names returns the header names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// NormalizedNames returns the identifier form of every column in order.
func (s Schema) NormalizedNames() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Normalized
	}
	return out
}

// Pairs returns the schema as [name, TYPE] pairs, the shape accepted by
// FromPairs.
func (s Schema) Pairs() [][2]string {
	out := make([][2]string, len(s))
	for i, c := range s {
		out[i] = [2]string{c.Name, string(c.Type)}
	}
	return out
}

// Identical reports whether a and b have the same column names and types in
// the same order. Inference details (layout, counts) are ignored.
func Identical(a, b Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}
