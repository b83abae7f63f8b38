package ddl

import (
	"fmt"
	"strings"
)

// Dialect describes how a backend spells identifiers and CREATE TABLE.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string
	// Open and Close surround an identifier segment; Close is doubled when
	// it appears inside the identifier.
	Open, Close string
	// Wrap turns the quoted name and the column block into the final
	// statement. Nil renders CREATE TABLE IF NOT EXISTS.
	Wrap func(fqn, body string) string
}

// QuoteIdent quotes a single identifier segment.
func (d Dialect) QuoteIdent(id string) string {
	return d.Open + strings.ReplaceAll(id, d.Close, d.Close+d.Close) + d.Close
}

// QuoteFQN quotes every dot-separated segment of name. Empty segments are
// dropped.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.QuoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes each name in cols.
func (d Dialect) QuoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.QuoteIdent(c)
	}
	return out
}

// BuildCreateTableSQL renders t for dialect d:
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col1" TYPE [NOT NULL],
//	  ...
//	);
//
// FQN, column names and SQL types must be non-empty.
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.Name, name)
		}
		def := d.QuoteIdent(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	quoted := d.QuoteFQN(fqn)
	body := strings.Join(cols, ",\n  ")
	if d.Wrap != nil {
		return d.Wrap(quoted, body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoted, body), nil
}
