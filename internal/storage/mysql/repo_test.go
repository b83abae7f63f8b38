package mysql

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"csvsample/internal/schema"
	"csvsample/internal/storage"
)

// Not parallel: swaps the package-level newRepository hook.
func TestAdapterRegistrationAndClose(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := 0
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed++ }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(localhost:3306)/db", Table: "observations"})
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}
	if gotCfg.Table != "observations" {
		t.Fatalf("cfg=%+v", gotCfg)
	}
	repo.Close()
	if closed != 1 {
		t.Fatalf("Close() did not invoke closeFn")
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"})
	if err == nil || !strings.Contains(err.Error(), "mysql dsn") {
		t.Fatalf("err=%v", err)
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := storage.CreateTableSQL("mysql", "db.observations", schema.Schema{
		{Normalized: "station_id", Type: schema.Long},
		{Normalized: "measured_at", Type: schema.DateTime},
		{Normalized: "na`me", Type: schema.String},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `db`.`observations` (\n  `station_id` BIGINT,\n  `measured_at` DATETIME(6),\n  `na``me` TEXT\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args, err := insertSQL("observations", []string{"a", "b"}, [][]any{{1, "x"}, {2, nil}})
	if err != nil {
		t.Fatalf("insertSQL: %v", err)
	}
	if stmt != "INSERT INTO `observations` (`a`, `b`) VALUES (?, ?), (?, ?)" {
		t.Fatalf("stmt=%s", stmt)
	}
	if len(args) != 4 || args[2] != 2 || args[3] != nil {
		t.Fatalf("args=%v", args)
	}

	if _, _, err := insertSQL("t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatal("expected width error")
	}
}

func TestChunkRows(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 70000)
	chunks := chunkRows(rows, 2)
	if len(chunks) != 3 {
		t.Fatalf("chunks=%d; want 3", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c)*2 > maxPlaceholders {
			t.Fatalf("chunk of %d rows exceeds placeholder limit", len(c))
		}
		total += len(c)
	}
	if total != len(rows) {
		t.Fatalf("total=%d", total)
	}
	if got := chunkRows(rows[:3], 100000); len(got) != 3 {
		t.Fatalf("wide rows: %d chunks; want one row each", len(got))
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	err := describe(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	var me *mysql.MySQLError
	if !errors.As(err, &me) || !strings.Contains(err.Error(), "error 1062: Duplicate entry") {
		t.Fatalf("err=%v", err)
	}
}

// Runs only when TEST_MYSQL_DSN points at a live server.
func TestRepository_CopyFrom_Integration(t *testing.T) {
	t.Parallel()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("skipping integration test: set TEST_MYSQL_DSN to run")
	}
	ctx := context.Background()
	const table = "__csvsample_copy_test"
	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: table})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	_ = repo.Exec(ctx, "DROP TABLE IF EXISTS "+table)
	if err := storage.EnsureTable(ctx, "mysql", repo, table, schema.Schema{
		{Normalized: "a", Type: schema.Long}, {Normalized: "b", Type: schema.String},
	}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	n, err := repo.CopyFrom(ctx, []string{"a", "b"}, [][]any{{int64(1), "x"}, {int64(2), nil}})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom n=%d err=%v", n, err)
	}
}
