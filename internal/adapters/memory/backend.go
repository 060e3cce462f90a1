// Package memory provides an in-process roster backend. Nothing survives the
// process; it backs dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
)

// Backend implements secondary.RosterBackend over a map.
type Backend struct {
	mu      sync.Mutex
	rosters map[string]models.Roster
}

// NewBackend returns an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{rosters: make(map[string]models.Roster)}
}

// Name returns the driver name.
func (b *Backend) Name() string { return "memory" }

// Load returns a copy of the stored roster.
func (b *Backend) Load(ctx context.Context, trialID string) (models.Roster, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	roster, ok := b.rosters[trialID]
	if !ok {
		return nil, fmt.Errorf("trial %s: %w", trialID, secondary.ErrNotFound)
	}
	return roster.Clone(), nil
}

// Save stores a copy of roster.
func (b *Backend) Save(ctx context.Context, trialID string, roster models.Roster) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rosters[trialID] = roster.Clone()
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }

var _ secondary.RosterBackend = (*Backend)(nil)
