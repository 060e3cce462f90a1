package assignment

import (
	"fmt"
	"slices"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// EnrollContext provides context for enrollment guards.
type EnrollContext struct {
	TrialID       string
	TrialExists   bool
	Institute     string
	Institutes    []string
	PatientNumber string
}

// ReasonEmptyPatientNumber is shown when no patient number was entered.
const ReasonEmptyPatientNumber = "Please enter a valid patient number."

// CanEnroll evaluates whether a patient can be enrolled.
// Rules:
// - Trial must exist
// - Patient number must be non-empty
// - Institute must be one of the configured sites
func CanEnroll(ctx EnrollContext) GuardResult {
	if !ctx.TrialExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("trial %s not found", ctx.TrialID),
		}
	}

	if strings.TrimSpace(ctx.PatientNumber) == "" {
		return GuardResult{
			Allowed: false,
			Reason:  ReasonEmptyPatientNumber,
		}
	}

	if !slices.Contains(ctx.Institutes, ctx.Institute) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown institute %q (choose one of: %s)", ctx.Institute, strings.Join(ctx.Institutes, ", ")),
		}
	}

	return GuardResult{Allowed: true}
}
