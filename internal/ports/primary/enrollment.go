package primary

import (
	"context"
	"io"

	"github.com/example/enroll/internal/models"
)

// EnrollmentService defines the primary port for enrollment operations.
type EnrollmentService interface {
	// Enroll validates a submission, assigns block and arm, appends the
	// record and persists the trial roster.
	Enroll(ctx context.Context, req EnrollRequest) (*EnrollResponse, error)

	// Roster returns a copy of a trial's in-memory roster.
	Roster(ctx context.Context, trialID string) (models.Roster, error)

	// Export renders a trial's roster as a csv or xlsx document.
	Export(ctx context.Context, trialID, format string, w io.Writer) error

	// Trials lists every configured trial with its current state.
	Trials(ctx context.Context) []TrialSummary

	// Institutes returns the selectable sites.
	Institutes() []string

	// Arms returns the ordered arm labels.
	Arms() []string
}

// EnrollRequest contains parameters for enrolling a patient.
type EnrollRequest struct {
	TrialID       string
	Institute     string
	PatientNumber string
}

// EnrollResponse contains the result of enrolling a patient.
type EnrollResponse struct {
	Trial      models.Trial
	Enrollment models.Enrollment
	RosterSize int
	Persisted  bool   // false when the save failed; the record stays in memory
	SaveError  string // reason for the failed save, if any
}

// TrialSummary describes one trial at the port boundary.
type TrialSummary struct {
	ID         string
	Name       string
	Enrolled   int
	Backend    string
	LoadFailed bool // initial load degraded to an empty roster
	LoadError  string
}
