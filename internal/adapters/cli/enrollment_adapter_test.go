package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockEnrollmentService implements primary.EnrollmentService for testing
type mockEnrollmentService struct {
	enrollFn func(ctx context.Context, req primary.EnrollRequest) (*primary.EnrollResponse, error)
	rosters  map[string]models.Roster
	trials   []primary.TrialSummary

	// Track calls for verification
	enrollReqs   []primary.EnrollRequest
	exportFormat string
}

func newMockEnrollmentService() *mockEnrollmentService {
	return &mockEnrollmentService{
		rosters: map[string]models.Roster{"trial_1": {}, "trial_2": {}},
		trials: []primary.TrialSummary{
			{ID: "trial_1", Name: "Trial 1 (COPD)", Backend: "csv"},
			{ID: "trial_2", Name: "Trial 2 (ILD)", Backend: "csv"},
		},
	}
}

func (m *mockEnrollmentService) Enroll(ctx context.Context, req primary.EnrollRequest) (*primary.EnrollResponse, error) {
	m.enrollReqs = append(m.enrollReqs, req)
	if m.enrollFn != nil {
		return m.enrollFn(ctx, req)
	}
	if req.PatientNumber == "" {
		return nil, errors.New("Please enter a valid patient number.")
	}
	name := req.TrialID
	for _, t := range m.trials {
		if t.ID == req.TrialID {
			name = t.Name
		}
	}
	n := len(m.rosters[req.TrialID])
	e := models.Enrollment{
		Institute:     req.Institute,
		PatientNumber: req.PatientNumber,
		Block:         n/6 + 1,
		RandomNumber:  0.5880145188953979,
		Arm:           []string{"Arm 1", "Arm 2"}[n%2],
	}
	m.rosters[req.TrialID] = append(m.rosters[req.TrialID], e)
	return &primary.EnrollResponse{
		Trial:      models.Trial{ID: req.TrialID, Name: name},
		Enrollment: e,
		RosterSize: n + 1,
		Persisted:  true,
	}, nil
}

func (m *mockEnrollmentService) Roster(ctx context.Context, trialID string) (models.Roster, error) {
	roster, ok := m.rosters[trialID]
	if !ok {
		return nil, errors.New("unknown trial: " + trialID)
	}
	return roster, nil
}

func (m *mockEnrollmentService) Export(ctx context.Context, trialID, format string, w io.Writer) error {
	m.exportFormat = format
	_, err := io.WriteString(w, "Institute,Patient Number,Block,Random Number,Arm\n")
	return err
}

func (m *mockEnrollmentService) Trials(ctx context.Context) []primary.TrialSummary {
	return m.trials
}

func (m *mockEnrollmentService) Institutes() []string {
	return []string{"세브란스병원", "일산병원", "아주대학교병원"}
}

func (m *mockEnrollmentService) Arms() []string {
	return []string{"Arm 1", "Arm 2"}
}

func TestEnrollmentAdapter_Enroll(t *testing.T) {
	mock := newMockEnrollmentService()
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	err := adapter.Enroll(context.Background(), "trial_1", "일산병원", "P1")
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	want := "✓ Patient P1 from 일산병원 has been enrolled in Trial 1 (COPD) and assigned to Arm 1."
	if !strings.Contains(out.String(), want) {
		t.Errorf("output missing %q:\n%s", want, out.String())
	}
	if !strings.Contains(out.String(), "Block 1, random number 0.5880145188953979, 1 enrolled") {
		t.Errorf("output missing block line:\n%s", out.String())
	}
}

func TestEnrollmentAdapter_EnrollByInstituteNumber(t *testing.T) {
	mock := newMockEnrollmentService()
	adapter := NewEnrollmentAdapter(mock, io.Discard)

	if err := adapter.Enroll(context.Background(), "trial_1", "3", "P1"); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if got := mock.enrollReqs[0].Institute; got != "아주대학교병원" {
		t.Errorf("Institute = %q, want 아주대학교병원", got)
	}
}

func TestEnrollmentAdapter_EnrollNotPersisted(t *testing.T) {
	mock := newMockEnrollmentService()
	mock.enrollFn = func(ctx context.Context, req primary.EnrollRequest) (*primary.EnrollResponse, error) {
		return &primary.EnrollResponse{
			Trial:      models.Trial{ID: req.TrialID, Name: "Trial 1 (COPD)"},
			Enrollment: models.Enrollment{Institute: req.Institute, PatientNumber: req.PatientNumber, Block: 1, Arm: "Arm 1"},
			RosterSize: 1,
			SaveError:  "failed to save roster for trial_1: disk full",
		}, nil
	}
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	if err := adapter.Enroll(context.Background(), "trial_1", "일산병원", "P1"); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if !strings.Contains(out.String(), "! roster not saved: failed to save roster for trial_1: disk full") {
		t.Errorf("expected save warning:\n%s", out.String())
	}
}

func TestEnrollmentAdapter_EnrollError(t *testing.T) {
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), io.Discard)

	err := adapter.Enroll(context.Background(), "trial_1", "일산병원", "")
	if err == nil || err.Error() != "Please enter a valid patient number." {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEnrollmentAdapter_ReviewEmpty(t *testing.T) {
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), &out)

	if err := adapter.Review(context.Background(), "trial_2"); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "No patients have been enrolled in Trial 2 (ILD) yet." {
		t.Errorf("output = %q", got)
	}
}

func TestEnrollmentAdapter_ReviewTable(t *testing.T) {
	mock := newMockEnrollmentService()
	mock.rosters["trial_1"] = models.Roster{
		{Institute: "세브란스병원", PatientNumber: "P1", Block: 1, RandomNumber: 0.25, Arm: "Arm 1"},
		{Institute: "일산병원", PatientNumber: "P2", Block: 1, RandomNumber: 0.75, Arm: "Arm 2"},
	}
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	if err := adapter.Review(context.Background(), "trial_1"); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	for _, want := range []string{"Trial 1 (COPD) (2 enrolled)", "INSTITUTE", "P2", "0.75", "Arm 2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestEnrollmentAdapter_ReviewUnknownTrial(t *testing.T) {
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), io.Discard)

	if err := adapter.Review(context.Background(), "trial_9"); err == nil {
		t.Error("expected error for unknown trial")
	}
}

func TestEnrollmentAdapter_Trials(t *testing.T) {
	mock := newMockEnrollmentService()
	mock.trials[1].LoadFailed = true
	mock.trials[1].LoadError = "timeout"
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	if err := adapter.Trials(context.Background()); err != nil {
		t.Fatalf("Trials failed: %v", err)
	}
	if !strings.Contains(out.String(), "trial_1") || !strings.Contains(out.String(), "(load failed: timeout)") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestEnrollmentAdapter_ExportToOutput(t *testing.T) {
	mock := newMockEnrollmentService()
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	if err := adapter.Export(context.Background(), "2", "csv", "-"); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if mock.exportFormat != "csv" || out.String() != "Institute,Patient Number,Block,Random Number,Arm\n" {
		t.Errorf("unexpected export: format=%q body=%q", mock.exportFormat, out.String())
	}
}

func TestEnrollmentAdapter_ExportToFile(t *testing.T) {
	mock := newMockEnrollmentService()
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)
	path := filepath.Join(t.TempDir(), "roster.csv")

	if err := adapter.Export(context.Background(), "trial_1", "csv", path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "✓ Exported trial_1 to "+path {
		t.Errorf("output = %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "Institute,Patient Number") {
		t.Errorf("file contents = %q", data)
	}
}

func TestEnrollmentAdapter_ExportUnknownTrial(t *testing.T) {
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), io.Discard)

	err := adapter.Export(context.Background(), "3", "csv", "-")
	if err == nil || err.Error() != "trial 3 not found" {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLookupTrial(t *testing.T) {
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), io.Discard)

	tests := []struct {
		arg    string
		wantID string
		wantOK bool
	}{
		{"trial_2", "trial_2", true},
		{"1", "trial_1", true},
		{"2", "trial_2", true},
		{"3", "", false},
		{"0", "", false},
		{"copd", "", false},
	}

	for _, tt := range tests {
		got, ok := adapter.lookupTrial(context.Background(), tt.arg)
		if ok != tt.wantOK || got.ID != tt.wantID {
			t.Errorf("lookupTrial(%q) = %q, %v; want %q, %v", tt.arg, got.ID, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestEnrollmentAdapter_RunSession(t *testing.T) {
	mock := newMockEnrollmentService()
	var out bytes.Buffer
	adapter := NewEnrollmentAdapter(mock, &out)

	input := strings.Join([]string{
		"1 일산병원 P1",
		"trial_1 2 P 2",
		"2 1",
		"review 1",
		"quit",
		"1 1 never",
	}, "\n")

	if err := adapter.RunSession(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}

	if len(mock.enrollReqs) != 3 {
		t.Fatalf("expected 3 enroll calls, got %d", len(mock.enrollReqs))
	}
	if mock.enrollReqs[1].PatientNumber != "P 2" || mock.enrollReqs[1].Institute != "일산병원" {
		t.Errorf("unexpected second request: %#v", mock.enrollReqs[1])
	}
	if mock.enrollReqs[2].TrialID != "trial_2" || mock.enrollReqs[2].PatientNumber != "" {
		t.Errorf("unexpected third request: %#v", mock.enrollReqs[2])
	}
	text := out.String()
	if !strings.Contains(text, "✗ Please enter a valid patient number.") {
		t.Errorf("expected validation message in session output:\n%s", text)
	}
	if !strings.Contains(text, "Trial 1 (COPD) (2 enrolled)") {
		t.Errorf("expected review table in session output:\n%s", text)
	}
}

func TestEnrollmentAdapter_RunSessionEOF(t *testing.T) {
	adapter := NewEnrollmentAdapter(newMockEnrollmentService(), io.Discard)

	if err := adapter.RunSession(context.Background(), strings.NewReader("")); err != nil {
		t.Errorf("expected clean EOF, got %v", err)
	}
}

func TestParseEnrollLine(t *testing.T) {
	tests := []struct {
		line                      string
		trial, institute, patient string
	}{
		{"trial_1 일산병원 P1", "trial_1", "일산병원", "P1"},
		{"1 2 P-1 left", "1", "2", "P-1 left"},
		{"1 2", "1", "2", ""},
		{"1", "1", "", ""},
		{"  1   2   P 3 ", "1", "2", "P 3"},
	}

	for _, tt := range tests {
		trial, institute, patient := parseEnrollLine(tt.line)
		if trial != tt.trial || institute != tt.institute || patient != tt.patient {
			t.Errorf("parseEnrollLine(%q) = %q, %q, %q", tt.line, trial, institute, patient)
		}
	}
}

func TestDefaultExportName(t *testing.T) {
	trial := models.Trial{ID: "trial_1", Name: "Trial 1 (COPD)"}
	if got := DefaultExportName(trial, "csv"); got != "enrolled_patients_Trial 1 (COPD).csv" {
		t.Errorf("DefaultExportName = %q", got)
	}
	if got := DefaultExportName(trial, "xlsx"); got != "enrolled_patients_Trial 1 (COPD).xlsx" {
		t.Errorf("DefaultExportName = %q", got)
	}
}
