// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
)

// RosterRepository implements secondary.RosterBackend with SQLite.
type RosterRepository struct {
	db *sql.DB
}

// NewRosterRepository creates a new SQLite roster repository.
func NewRosterRepository(db *sql.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// Name returns the driver name.
func (r *RosterRepository) Name() string { return "sqlite" }

// Load retrieves a trial's enrollments in insertion order.
// A trial with no rows loads as an empty roster.
func (r *RosterRepository) Load(ctx context.Context, trialID string) (models.Roster, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT institute, patient_number, block, random_number, arm FROM enrollments WHERE trial_id = ? ORDER BY position ASC",
		trialID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	roster := models.Roster{}
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.Institute, &e.PatientNumber, &e.Block, &e.RandomNumber, &e.Arm); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		roster = append(roster, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	return roster, nil
}

// Save replaces a trial's enrollments inside one transaction.
func (r *RosterRepository) Save(ctx context.Context, trialID string, roster models.Roster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM enrollments WHERE trial_id = ?", trialID); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO enrollments (trial_id, position, institute, patient_number, block, random_number, arm) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range roster {
		if _, err := stmt.ExecContext(ctx, trialID, i, e.Institute, e.PatientNumber, e.Block, e.RandomNumber, e.Arm); err != nil {
			return fmt.Errorf("failed to insert enrollment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *RosterRepository) Close() error {
	return r.db.Close()
}

// Ensure RosterRepository implements the interface.
var _ secondary.RosterBackend = (*RosterRepository)(nil)
