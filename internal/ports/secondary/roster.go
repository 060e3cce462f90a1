// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"

	"github.com/example/enroll/internal/models"
)

// ErrNotFound signals that a backend holds no data for a trial yet.
// Load treats it as an empty roster rather than a failure.
var ErrNotFound = errors.New("roster not found")

// RosterBackend defines the secondary port for roster persistence.
// A backend stores each trial's full roster at its own location and
// overwrites it completely on every save.
type RosterBackend interface {
	// Name identifies the backend driver in logs and status output.
	Name() string

	// Load retrieves the stored roster for a trial.
	// A backend with nothing stored may return an error wrapping ErrNotFound
	// or an empty roster; callers treat both the same.
	Load(ctx context.Context, trialID string) (models.Roster, error)

	// Save replaces the stored roster for a trial.
	Save(ctx context.Context, trialID string, roster models.Roster) error

	// Close releases connections or handles held by the backend.
	Close() error
}
