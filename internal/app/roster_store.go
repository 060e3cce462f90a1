package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/enroll/internal/ctxutil"
	"github.com/example/enroll/internal/metrics"
	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
)

// LoadResult is the outcome of loading a trial roster. Roster is always
// usable: on failure it is empty and Err carries the reason.
type LoadResult struct {
	Roster models.Roster
	Err    error
}

// OK reports whether the backend was read successfully.
func (r LoadResult) OK() bool { return r.Err == nil }

// SaveResult is the outcome of persisting a trial roster.
type SaveResult struct {
	Err error
}

// OK reports whether the roster reached the backend.
func (r SaveResult) OK() bool { return r.Err == nil }

// RosterStore loads and saves trial rosters through a backend without ever
// failing the caller. Backend errors are logged, counted and returned as data.
type RosterStore struct {
	backend secondary.RosterBackend
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRosterStore creates a RosterStore with injected dependencies.
// logger and m may be nil.
func NewRosterStore(backend secondary.RosterBackend, logger *zap.Logger, m *metrics.Metrics) *RosterStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterStore{
		backend: backend,
		logger:  logger,
		metrics: m,
	}
}

// BackendName returns the active driver name.
func (s *RosterStore) BackendName() string {
	return s.backend.Name()
}

// Load fetches the stored roster for a trial. Missing data yields an empty
// roster with no error; any other failure yields an empty roster and Err.
func (s *RosterStore) Load(ctx context.Context, trialID string) LoadResult {
	log := s.log(ctx, trialID)

	roster, err := s.backend.Load(ctx, trialID)
	if errors.Is(err, secondary.ErrNotFound) {
		log.Debug("no stored roster, starting empty")
		return LoadResult{Roster: models.Roster{}}
	}
	if err != nil {
		log.Warn("roster load failed, starting empty", zap.Error(err))
		s.metrics.BackendFailed(s.backend.Name(), "load")
		return LoadResult{
			Roster: models.Roster{},
			Err:    fmt.Errorf("failed to load roster for %s: %w", trialID, err),
		}
	}

	if roster == nil {
		roster = models.Roster{}
	}
	log.Debug("roster loaded", zap.Int("enrolled", roster.Len()))
	return LoadResult{Roster: roster}
}

// Save writes the full roster for a trial, replacing what was stored.
func (s *RosterStore) Save(ctx context.Context, trialID string, roster models.Roster) SaveResult {
	log := s.log(ctx, trialID)

	if err := s.backend.Save(ctx, trialID, roster.Clone()); err != nil {
		log.Error("roster save failed, enrollment kept in memory only",
			zap.Int("enrolled", roster.Len()),
			zap.Error(err),
		)
		s.metrics.BackendFailed(s.backend.Name(), "save")
		return SaveResult{Err: fmt.Errorf("failed to save roster for %s: %w", trialID, err)}
	}

	log.Debug("roster saved", zap.Int("enrolled", roster.Len()))
	return SaveResult{}
}

// Close releases the backend.
func (s *RosterStore) Close() error {
	return s.backend.Close()
}

func (s *RosterStore) log(ctx context.Context, trialID string) *zap.Logger {
	fields := []zap.Field{
		zap.String("trial", trialID),
		zap.String("backend", s.backend.Name()),
	}
	if id := ctxutil.SessionFromContext(ctx); id != "" {
		fields = append(fields, zap.String("session_id", id))
	}
	if op := ctxutil.OperatorFromContext(ctx); op != "" {
		fields = append(fields, zap.String("operator", op))
	}
	return s.logger.With(fields...)
}
