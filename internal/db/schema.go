package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in schema_version once the schema is applied.
const SchemaVersion = 1

// SchemaSQL is the SQLite roster schema.
//
// This is the single source of truth for the SQLite schema. Repository tests
// load it through GetSchemaSQL() rather than declaring their own tables.
const SchemaSQL = `
-- One row per enrollment; position is the 0-based insertion index within a trial.
CREATE TABLE IF NOT EXISTS enrollments (
	trial_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	institute TEXT NOT NULL,
	patient_number TEXT NOT NULL,
	block INTEGER NOT NULL,
	random_number REAL NOT NULL,
	arm TEXT NOT NULL,
	PRIMARY KEY (trial_id, position)
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// PostgresSchemaSQL is the Postgres roster schema.
const PostgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS enrollments (
	trial_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	institute TEXT NOT NULL,
	patient_number TEXT NOT NULL,
	block INTEGER NOT NULL,
	random_number DOUBLE PRECISION NOT NULL,
	arm TEXT NOT NULL,
	PRIMARY KEY (trial_id, position)
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMPTZ DEFAULT now()
);
`

// GetSchemaSQL returns the SQLite schema.
func GetSchemaSQL() string {
	return SchemaSQL
}

// InitSchema applies the schema for driver and records the schema version.
// It is idempotent.
func InitSchema(ctx context.Context, database *sql.DB, driver string) error {
	schema := SchemaSQL
	insert := "INSERT OR IGNORE INTO schema_version (version) VALUES (?)"
	if driver == DriverPostgres {
		schema = PostgresSchemaSQL
		insert = "INSERT INTO schema_version (version) VALUES ($1) ON CONFLICT (version) DO NOTHING"
	}

	if driver == DriverPostgres {
		// pgx does not accept several statements in one prepared Exec.
		for _, stmt := range splitStatements(schema) {
			if _, err := database.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("execute ddl: %w", err)
			}
		}
	} else if _, err := database.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute ddl: %w", err)
	}

	if _, err := database.ExecContext(ctx, insert, SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied schema version, or 0.
func CurrentVersion(ctx context.Context, database *sql.DB) (int, error) {
	var version int
	err := database.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
