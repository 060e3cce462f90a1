// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/primary"
	"github.com/example/enroll/internal/rostercodec"
)

// EnrollmentAdapter is a thin adapter that translates CLI operations to EnrollmentService calls.
// It depends only on the EnrollmentService interface, enabling easy testing with mocks.
type EnrollmentAdapter struct {
	service primary.EnrollmentService
	out     io.Writer
}

// NewEnrollmentAdapter creates a new EnrollmentAdapter with the given service.
func NewEnrollmentAdapter(service primary.EnrollmentService, out io.Writer) *EnrollmentAdapter {
	return &EnrollmentAdapter{
		service: service,
		out:     out,
	}
}

// Enroll enrolls one patient and prints the assignment.
func (a *EnrollmentAdapter) Enroll(ctx context.Context, trialID, institute, patientNumber string) error {
	resp, err := a.service.Enroll(ctx, primary.EnrollRequest{
		TrialID:       a.resolveTrial(ctx, trialID),
		Institute:     a.resolveInstitute(institute),
		PatientNumber: patientNumber,
	})
	if err != nil {
		return err
	}

	e := resp.Enrollment
	fmt.Fprintf(a.out, "%s Patient %s from %s has been enrolled in %s and assigned to %s.\n",
		color.New(color.FgGreen).Sprint("✓"), e.PatientNumber, e.Institute, resp.Trial.Name, a.armLabel(e.Arm))
	fmt.Fprintf(a.out, "  Block %d, random number %s, %d enrolled\n",
		e.Block, rostercodec.FormatFloat(e.RandomNumber), resp.RosterSize)
	if !resp.Persisted {
		fmt.Fprintf(a.out, "  %s roster not saved: %s\n", color.New(color.FgYellow).Sprint("!"), resp.SaveError)
	}
	return nil
}

// Review prints a trial's roster as a table.
func (a *EnrollmentAdapter) Review(ctx context.Context, trialID string) error {
	trialID = a.resolveTrial(ctx, trialID)
	roster, err := a.service.Roster(ctx, trialID)
	if err != nil {
		return err
	}

	if roster.Len() == 0 {
		fmt.Fprintf(a.out, "No patients have been enrolled in %s yet.\n", a.trialName(ctx, trialID))
		return nil
	}

	fmt.Fprintf(a.out, "\n%s (%d enrolled)\n", a.trialName(ctx, trialID), roster.Len())
	fmt.Fprintf(a.out, "%-4s %-16s %-16s %-6s %-20s %s\n", "#", "INSTITUTE", "PATIENT", "BLOCK", "RANDOM", "ARM")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for i, e := range roster {
		fmt.Fprintf(a.out, "%-4d %-16s %-16s %-6d %-20s %s\n",
			i+1, e.Institute, e.PatientNumber, e.Block, rostercodec.FormatFloat(e.RandomNumber), a.armLabel(e.Arm))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Export writes a trial's roster document to output. An empty output uses
// the default download name; "-" writes the document to the adapter output.
func (a *EnrollmentAdapter) Export(ctx context.Context, trialArg, format, output string) error {
	trial, ok := a.lookupTrial(ctx, trialArg)
	if !ok {
		return fmt.Errorf("trial %s not found", trialArg)
	}

	if output == "-" {
		return a.service.Export(ctx, trial.ID, format, a.out)
	}
	if output == "" {
		output = DefaultExportName(trial, format)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := a.service.Export(ctx, trial.ID, format, f); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(a.out, "%s Exported %s to %s\n", color.New(color.FgGreen).Sprint("✓"), trial.ID, output)
	return nil
}

// Trials lists the configured trials.
func (a *EnrollmentAdapter) Trials(ctx context.Context) error {
	trials := a.service.Trials(ctx)
	if len(trials) == 0 {
		fmt.Fprintln(a.out, "No trials configured")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-4s %-12s %-24s %-9s %s\n", "#", "ID", "NAME", "ENROLLED", "BACKEND")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for i, t := range trials {
		status := ""
		if t.LoadFailed {
			status = " " + color.New(color.FgYellow).Sprintf("(load failed: %s)", t.LoadError)
		}
		fmt.Fprintf(a.out, "%-4d %-12s %-24s %-9d %s%s\n", i+1, t.ID, t.Name, t.Enrolled, t.Backend, status)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Institutes lists the selectable sites with their menu numbers.
func (a *EnrollmentAdapter) Institutes() {
	for i, inst := range a.service.Institutes() {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, inst)
	}
}

// RunSession reads enrollment lines from in until EOF or "quit".
// Each line is `<trial> <institute> <patient number>`, where trial and
// institute may be given by menu number.
func (a *EnrollmentAdapter) RunSession(ctx context.Context, in io.Reader) error {
	a.sessionHelp(ctx)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "enroll> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help", "?":
			a.sessionHelp(ctx)
			continue
		case "trials":
			_ = a.Trials(ctx)
			continue
		case "review":
			if len(fields) < 2 {
				fmt.Fprintln(a.out, "usage: review <trial>")
				continue
			}
			if err := a.Review(ctx, fields[1]); err != nil {
				a.printError(err)
			}
			continue
		}

		trial, institute, patient := parseEnrollLine(line)
		if err := a.Enroll(ctx, trial, institute, patient); err != nil {
			a.printError(err)
		}
	}
}

func (a *EnrollmentAdapter) sessionHelp(ctx context.Context) {
	fmt.Fprintln(a.out, "Trials:")
	for i, t := range a.service.Trials(ctx) {
		fmt.Fprintf(a.out, "  %d. %s (%s)\n", i+1, t.Name, t.ID)
	}
	fmt.Fprintln(a.out, "Institutes:")
	a.Institutes()
	fmt.Fprintln(a.out, "Enter: <trial> <institute> <patient number>  |  review <trial>  |  trials  |  quit")
}

func (a *EnrollmentAdapter) printError(err error) {
	fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgRed).Sprint("✗"), err)
}

// parseEnrollLine splits an enrollment line. The patient number is
// everything after the institute and may be empty.
func parseEnrollLine(line string) (trial, institute, patient string) {
	trial, rest := nextField(line)
	institute, rest = nextField(rest)
	return trial, institute, strings.TrimSpace(rest)
}

func nextField(s string) (field, rest string) {
	s = strings.TrimSpace(s)
	field, rest, _ = strings.Cut(s, " ")
	return field, rest
}

// lookupTrial matches a trial by ID or 1-based menu number.
func (a *EnrollmentAdapter) lookupTrial(ctx context.Context, arg string) (models.Trial, bool) {
	trials := a.service.Trials(ctx)
	for _, t := range trials {
		if t.ID == arg {
			return models.Trial{ID: t.ID, Name: t.Name}, true
		}
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(trials) {
		t := trials[n-1]
		return models.Trial{ID: t.ID, Name: t.Name}, true
	}
	return models.Trial{}, false
}

// resolveTrial maps a menu number to a trial ID; anything else passes
// through so the service reports unknown trials itself.
func (a *EnrollmentAdapter) resolveTrial(ctx context.Context, arg string) string {
	if t, ok := a.lookupTrial(ctx, arg); ok {
		return t.ID
	}
	return arg
}

// resolveInstitute maps a 1-based menu number to an institute name.
func (a *EnrollmentAdapter) resolveInstitute(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		institutes := a.service.Institutes()
		if n >= 1 && n <= len(institutes) {
			return institutes[n-1]
		}
	}
	return s
}

func (a *EnrollmentAdapter) trialName(ctx context.Context, trialID string) string {
	for _, t := range a.service.Trials(ctx) {
		if t.ID == trialID {
			return t.Name
		}
	}
	return trialID
}

func (a *EnrollmentAdapter) armLabel(arm string) string {
	arms := a.service.Arms()
	if len(arms) > 0 && arm == arms[0] {
		return color.New(color.FgCyan).Sprint(arm)
	}
	return color.New(color.FgMagenta).Sprint(arm)
}

// DefaultExportName returns the download name used for a trial export.
func DefaultExportName(trial models.Trial, format string) string {
	return "enrolled_patients_" + trial.Name + rostercodec.Extension(format)
}

