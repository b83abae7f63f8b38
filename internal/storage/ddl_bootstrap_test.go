package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"csvsample/internal/ddl"
	"csvsample/internal/schema"
)

func init() {
	RegisterDialect("fakesql", Dialect{
		Dialect: ddl.Dialect{Name: "fakesql ddl", Open: "`", Close: "`"},
		MapType: func(t schema.ColumnType) string {
			if t.Numeric() {
				return "NUM"
			}
			return "TXT"
		},
		Truncate: func(q string) string { return "DELETE FROM " + q },
	})
	RegisterDialect("plainsql", Dialect{
		Dialect: ddl.Dialect{Name: "plain ddl", Open: `"`, Close: `"`},
		MapType: func(schema.ColumnType) string { return "TEXT" },
	})
}

var testSchema = schema.Schema{
	{Name: "Id", Normalized: "id", Type: schema.Long},
	{Name: "Název", Normalized: "nazev", Type: schema.String},
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	if err := EnsureTable(context.Background(), "fakesql", repo, "db.people", testSchema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `db`.`people` (\n  `id` NUM,\n  `nazev` TXT\n);"
	if len(repo.execs) != 1 || repo.execs[0] != want {
		t.Fatalf("execs=%q\nwant %q", repo.execs, want)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
	}{
		{"fakesql", "DELETE FROM `people`"},
		{"plainsql", `TRUNCATE TABLE "people"`},
	}
	for _, tt := range tests {
		repo := &fakeRepo{}
		if err := Truncate(context.Background(), tt.kind, repo, "people"); err != nil {
			t.Fatalf("%s: Truncate: %v", tt.kind, err)
		}
		if len(repo.execs) != 1 || repo.execs[0] != tt.want {
			t.Fatalf("%s: execs=%q want %q", tt.kind, repo.execs, tt.want)
		}
	}
}

func TestDialectFor_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := DialectFor("nosuch"); err == nil || !strings.Contains(err.Error(), "nosuch") {
		t.Fatalf("err=%v", err)
	}
	if err := EnsureTable(context.Background(), "nosuch", &fakeRepo{}, "t", testSchema); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

type failingRepo struct{ fakeRepo }

func (failingRepo) Exec(context.Context, string) error { return errors.New("permission denied") }

func TestEnsureTable_ExecError(t *testing.T) {
	t.Parallel()

	err := EnsureTable(context.Background(), "plainsql", &failingRepo{}, "t", testSchema)
	if err == nil || !strings.Contains(err.Error(), "apply DDL: permission denied") {
		t.Fatalf("err=%v", err)
	}
}
