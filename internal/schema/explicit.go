package schema

import (
	"encoding/json"
	"fmt"
)

// FromPairs builds a schema from explicit [name, TYPE] pairs. header is the
// file's header row; only its width is checked, names come from pairs.
//
// A width mismatch yields ErrColumnMismatch; an unknown type yields
// ErrInvalidDataType. Both are wrapped with detail.
func FromPairs(header []string, pairs [][2]string) (Schema, error) {
	if len(pairs) != len(header) {
		return nil, fmt.Errorf("%w: %d types given for %d columns", ErrColumnMismatch, len(pairs), len(header))
	}
	out := make(Schema, len(pairs))
	for i, p := range pairs {
		t, err := ParseColumnType(p[1])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", p[0], err)
		}
		out[i] = Column{Name: p[0], Type: t, Nullable: true}
	}
	assignNormalized(out)
	return out, nil
}

// ParsePairsJSON decodes `[["col","STRING"],...]`.
func ParsePairsJSON(data []byte) ([][2]string, error) {
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("schema: decode pairs: %w", err)
	}
	return pairs, nil
}
