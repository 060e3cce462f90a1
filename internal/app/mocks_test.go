package app

import (
	"context"
	"errors"
	"sync"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
)

// Ensure mockRosterBackend implements the interface
var _ secondary.RosterBackend = (*mockRosterBackend)(nil)

// mockRosterBackend implements secondary.RosterBackend for testing.
type mockRosterBackend struct {
	mu        sync.Mutex
	rosters   map[string]models.Roster
	loadErr   error
	saveErr   error
	saveCalls int
	closed    bool
}

func newMockRosterBackend() *mockRosterBackend {
	return &mockRosterBackend{
		rosters: make(map[string]models.Roster),
	}
}

func (m *mockRosterBackend) Name() string { return "mock" }

func (m *mockRosterBackend) Load(ctx context.Context, trialID string) (models.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	roster, ok := m.rosters[trialID]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	return roster.Clone(), nil
}

func (m *mockRosterBackend) Save(ctx context.Context, trialID string, roster models.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rosters[trialID] = roster.Clone()
	return nil
}

func (m *mockRosterBackend) Close() error {
	m.closed = true
	return nil
}

func (m *mockRosterBackend) stored(trialID string) models.Roster {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters[trialID].Clone()
}

var errUnreachable = errors.New("dial tcp 10.0.0.1:443: connect: connection refused")

// fixedSource replays values in order and wraps around.
type fixedSource struct {
	values []float64
	next   int
}

func newFixedSource(values ...float64) *fixedSource {
	return &fixedSource{values: values}
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}
