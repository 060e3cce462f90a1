package db

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenSQLite_AppliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", DefaultSQLiteFile)

	database, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer database.Close()

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='enrollments'").Scan(&count)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected enrollments table, found %d", count)
	}

	version, err := CurrentVersion(ctx, database)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("version = %d, want %d", version, SchemaVersion)
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	database, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer database.Close()

	if err := InitSchema(ctx, database, DriverSQLite); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}

	var rows int
	if err := database.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("schema_version rows = %d, want 1", rows)
	}
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	if _, err := OpenPostgres(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INTEGER);

CREATE TABLE b (
	-- inline comment
	id INTEGER
);
`
	got := splitStatements(script)
	want := []string{
		"CREATE TABLE a (id INTEGER)",
		"CREATE TABLE b (\n\tid INTEGER\n)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitStatements = %q, want %q", got, want)
	}
}

func TestPostgresSchemaSplitsIntoTwoStatements(t *testing.T) {
	if got := len(splitStatements(PostgresSchemaSQL)); got != 2 {
		t.Errorf("statements = %d, want 2", got)
	}
}
