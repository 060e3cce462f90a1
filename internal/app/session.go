package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/enroll/internal/core/assignment"
	"github.com/example/enroll/internal/core/random"
	"github.com/example/enroll/internal/ctxutil"
	"github.com/example/enroll/internal/models"
)

// TrialState is the in-memory state of one trial for the session's lifetime.
type TrialState struct {
	Trial   models.Trial
	Roster  models.Roster
	LoadErr error // set when the initial load degraded to an empty roster
}

// SessionOptions configures a new session.
type SessionOptions struct {
	ID         string // generated when empty
	Trials     []models.Trial
	Institutes []string
	Scheme     assignment.Scheme
	Source     random.Source
}

// Session holds everything one enrollment run works on: the loaded rosters,
// the allocation scheme and the random source, which is seeded once and
// advances on every enrollment across all trials.
type Session struct {
	ID string

	mu         sync.Mutex
	store      *RosterStore
	scheme     assignment.Scheme
	institutes []string
	source     random.Source
	order      []string
	trials     map[string]*TrialState
}

// NewSession builds a session and loads every trial roster from the store.
// Load failures never abort the session; the affected trial starts empty.
func NewSession(ctx context.Context, store *RosterStore, opts SessionOptions) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		ID:         id,
		store:      store,
		scheme:     opts.Scheme,
		institutes: append([]string(nil), opts.Institutes...),
		source:     opts.Source,
		trials:     make(map[string]*TrialState, len(opts.Trials)),
	}
	if s.source == nil {
		s.source = random.NewMT19937(0)
	}

	ctx = ctxutil.WithSessionID(ctx, id)
	for _, trial := range opts.Trials {
		if _, dup := s.trials[trial.ID]; dup {
			continue
		}
		result := store.Load(ctx, trial.ID)
		s.trials[trial.ID] = &TrialState{
			Trial:   trial,
			Roster:  result.Roster,
			LoadErr: result.Err,
		}
		s.order = append(s.order, trial.ID)
	}
	return s
}

// Context returns ctx tagged with the session ID.
func (s *Session) Context(ctx context.Context) context.Context {
	return ctxutil.WithSessionID(ctx, s.ID)
}

// TrialIDs returns the trial IDs in configuration order.
func (s *Session) TrialIDs() []string {
	return append([]string(nil), s.order...)
}

// state returns the trial state; callers must hold s.mu.
func (s *Session) state(trialID string) (*TrialState, bool) {
	st, ok := s.trials[trialID]
	return st, ok
}
