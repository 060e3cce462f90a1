// Package postgres provides a Postgres-backed roster backend using the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/example/enroll/internal/db"
	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
)

// Compile-time contract assertion ensuring the repository satisfies the port.
var _ secondary.RosterBackend = (*RosterRepository)(nil)

// RosterRepository stores rosters in the enrollments table.
type RosterRepository struct {
	db *sql.DB

	mu          sync.Mutex
	schemaReady bool
}

// NewRosterRepository wraps a pool from db.OpenPostgres. The schema is
// applied on the first Load or Save and retried until it succeeds.
func NewRosterRepository(db *sql.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) ensureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemaReady {
		return nil
	}
	if err := db.InitSchema(ctx, r.db, db.DriverPostgres); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	r.schemaReady = true
	return nil
}

// Name returns the driver name.
func (r *RosterRepository) Name() string { return "postgres" }

// Load retrieves a trial's enrollments in insertion order.
func (r *RosterRepository) Load(ctx context.Context, trialID string) (models.Roster, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT institute, patient_number, block, random_number, arm
		 FROM enrollments WHERE trial_id = $1 ORDER BY position`,
		trialID,
	)
	if err != nil {
		return nil, fmt.Errorf("select enrollments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	roster := models.Roster{}
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.Institute, &e.PatientNumber, &e.Block, &e.RandomNumber, &e.Arm); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// Save replaces a trial's enrollments in a single transaction.
func (r *RosterRepository) Save(ctx context.Context, trialID string, roster models.Roster) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE trial_id = $1`, trialID); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	for i, e := range roster {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO enrollments (trial_id, position, institute, patient_number, block, random_number, arm)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			trialID, i, e.Institute, e.PatientNumber, e.Block, e.RandomNumber, e.Arm,
		)
		if err != nil {
			return fmt.Errorf("insert enrollment %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *RosterRepository) Close() error { return r.db.Close() }
