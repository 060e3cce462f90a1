package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/example/enroll/internal/core/assignment"
	"github.com/example/enroll/internal/ctxutil"
	"github.com/example/enroll/internal/metrics"
	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/primary"
	"github.com/example/enroll/internal/rostercodec"
)

// Sentinel errors returned by the enrollment service.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnknownTrial = errors.New("unknown trial")
)

// ValidationError carries the message shown to the user when a submission
// is rejected. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// EnrollmentServiceImpl implements the EnrollmentService interface.
type EnrollmentServiceImpl struct {
	session *Session
	logger  *zap.Logger
	metrics *metrics.Metrics
}

var _ primary.EnrollmentService = (*EnrollmentServiceImpl)(nil)

// NewEnrollmentService creates a new EnrollmentService over a loaded session.
func NewEnrollmentService(session *Session, logger *zap.Logger, m *metrics.Metrics) *EnrollmentServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EnrollmentServiceImpl{
		session: session,
		logger:  logger.With(zap.String("session_id", session.ID)),
		metrics: m,
	}
	for _, id := range session.order {
		m.SetRosterSize(id, session.trials[id].Roster.Len())
	}
	return svc
}

// Enroll validates a submission, assigns block and arm, appends the record
// in memory, then persists the whole roster. A failed save is reported in
// the response, never as an error.
func (s *EnrollmentServiceImpl) Enroll(ctx context.Context, req primary.EnrollRequest) (*primary.EnrollResponse, error) {
	sess := s.session
	sess.mu.Lock()
	defer sess.mu.Unlock()

	state, exists := sess.state(req.TrialID)

	guard := assignment.CanEnroll(assignment.EnrollContext{
		TrialID:       req.TrialID,
		TrialExists:   exists,
		Institute:     req.Institute,
		Institutes:    sess.institutes,
		PatientNumber: req.PatientNumber,
	})
	if !guard.Allowed {
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTrial, req.TrialID)
		}
		s.metrics.ValidationFailed()
		s.logger.Info("enrollment rejected",
			zap.String("trial", req.TrialID),
			zap.String("reason", guard.Reason),
		)
		return nil, &ValidationError{Reason: guard.Reason}
	}

	n := state.Roster.Len()
	a := assignment.Assign(n, sess.scheme, sess.source)
	record := assignment.NewRecord(req.Institute, strings.TrimSpace(req.PatientNumber), a)
	state.Roster = state.Roster.Append(record)

	s.metrics.Enrolled(req.TrialID, record.Arm)
	s.metrics.SetRosterSize(req.TrialID, state.Roster.Len())

	saved := sess.store.Save(sess.Context(ctx), req.TrialID, state.Roster)

	fields := []zap.Field{
		zap.String("trial", req.TrialID),
		zap.String("institute", record.Institute),
		zap.String("patient", record.PatientNumber),
		zap.Int("block", record.Block),
		zap.String("arm", record.Arm),
		zap.Float64("random_number", record.RandomNumber),
		zap.Bool("persisted", saved.OK()),
	}
	if op := ctxutil.OperatorFromContext(ctx); op != "" {
		fields = append(fields, zap.String("operator", op))
	}
	s.logger.Info("patient enrolled", fields...)

	resp := &primary.EnrollResponse{
		Trial:      state.Trial,
		Enrollment: record,
		RosterSize: state.Roster.Len(),
		Persisted:  saved.OK(),
	}
	if saved.Err != nil {
		resp.SaveError = saved.Err.Error()
	}
	return resp, nil
}

// Roster returns a copy of a trial's in-memory roster.
func (s *EnrollmentServiceImpl) Roster(ctx context.Context, trialID string) (models.Roster, error) {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()

	state, ok := s.session.state(trialID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrial, trialID)
	}
	return state.Roster.Clone(), nil
}

// Export renders a trial's roster in the requested format.
func (s *EnrollmentServiceImpl) Export(ctx context.Context, trialID, format string, w io.Writer) error {
	roster, err := s.Roster(ctx, trialID)
	if err != nil {
		return err
	}

	switch format {
	case "", rostercodec.FormatCSV:
		err = rostercodec.EncodeCSV(w, roster)
	case rostercodec.FormatXLSX:
		err = rostercodec.EncodeXLSX(w, roster)
	default:
		return fmt.Errorf("unsupported export format %q (want csv or xlsx)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", trialID, err)
	}
	return nil
}

// Trials lists every configured trial in configuration order.
func (s *EnrollmentServiceImpl) Trials(ctx context.Context) []primary.TrialSummary {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()

	backend := s.session.store.BackendName()
	summaries := make([]primary.TrialSummary, 0, len(s.session.order))
	for _, id := range s.session.order {
		st := s.session.trials[id]
		summary := primary.TrialSummary{
			ID:       st.Trial.ID,
			Name:     st.Trial.Name,
			Enrolled: st.Roster.Len(),
			Backend:  backend,
		}
		if st.LoadErr != nil {
			summary.LoadFailed = true
			summary.LoadError = st.LoadErr.Error()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Institutes returns the selectable sites.
func (s *EnrollmentServiceImpl) Institutes() []string {
	return append([]string(nil), s.session.institutes...)
}

// Arms returns the ordered arm labels.
func (s *EnrollmentServiceImpl) Arms() []string {
	return append([]string(nil), s.session.scheme.Arms...)
}
