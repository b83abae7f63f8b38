package load

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"csvsample/internal/schema"
)

var (
	errNotInteger = errors.New("not an integer")
	errOutOfRange = errors.New("out of INTEGER range")
	errNotNumber  = errors.New("not a number")
	errNotBool    = errors.New("not a boolean")
	errNotTime    = errors.New("not a date")
)

// CoerceError reports one cell that does not fit its column type.
type CoerceError struct {
	Column string
	Type   schema.ColumnType
	Value  string
	Err    error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("column %q (%s): %v: %q", e.Column, e.Type, e.Err, e.Value)
}

func (e *CoerceError) Unwrap() error { return e.Err }

// coercer converts string records into driver values aligned with a schema.
type coercer struct {
	cols []schema.Column
}

func newCoercer(s schema.Schema) coercer {
	return coercer{cols: s}
}

// row converts rec. Missing trailing cells become NULL. The first cell that
// fails its type aborts the row.
func (c coercer) row(rec []string) ([]any, error) {
	out := make([]any, len(c.cols))
	for i, col := range c.cols {
		if i >= len(rec) {
			continue
		}
		v, err := coerceValue(col, rec[i])
		if err != nil {
			return nil, &CoerceError{Column: col.Name, Type: col.Type, Value: rec[i], Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// coerceValue maps one cell to int64, float64, bool, time.Time or string.
// Blank cells are NULL for every type.
func coerceValue(col schema.Column, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	switch col.Type {
	case schema.Long:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		return n, nil

	case schema.Integer:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, errOutOfRange
		}
		return n, nil

	case schema.Double, schema.Decimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, errNotNumber
		}
		return f, nil

	case schema.Boolean:
		b, ok := schema.ParseBool(s)
		if !ok {
			return nil, errNotBool
		}
		return b, nil

	case schema.Date, schema.DateTime:
		return parseTime(s, col.Layout)
	}
	return raw, nil
}

// parseTime tries the column's inferred layout, then every known layout.
func parseTime(s, layout string) (time.Time, error) {
	if layout != "" {
		if t, ok := schema.ParseTime(s, layout); ok {
			return t, nil
		}
	}
	if t, ok := schema.ParseTime(s, ""); ok {
		return t, nil
	}
	return time.Time{}, errNotTime
}
