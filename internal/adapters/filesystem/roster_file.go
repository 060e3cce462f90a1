// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
	"github.com/example/enroll/internal/rostercodec"
)

// RosterFileBackend implements secondary.RosterBackend with one document per
// trial in a data directory, encoded as CSV or as an Excel workbook.
type RosterFileBackend struct {
	dir    string
	format string
}

// NewRosterFileBackend creates a file backend rooted at dir.
// format is rostercodec.FormatCSV or rostercodec.FormatXLSX.
func NewRosterFileBackend(dir, format string) (*RosterFileBackend, error) {
	if format == "" {
		format = rostercodec.FormatCSV
	}
	if format != rostercodec.FormatCSV && format != rostercodec.FormatXLSX {
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
	if dir == "" {
		dir = "data"
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &RosterFileBackend{dir: dir, format: format}, nil
}

// Name returns the driver name.
func (b *RosterFileBackend) Name() string { return b.format }

// Path returns the document path for a trial.
func (b *RosterFileBackend) Path(trialID string) string {
	return filepath.Join(b.dir, "enrollment_data_"+trialID+rostercodec.Extension(b.format))
}

// Load reads the trial's document.
func (b *RosterFileBackend) Load(ctx context.Context, trialID string) (models.Roster, error) {
	path := b.Path(trialID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	roster, err := b.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return roster, nil
}

// Save writes the full roster to a temporary file and renames it over the
// trial's document, so readers never observe a partial write.
func (b *RosterFileBackend) Save(ctx context.Context, trialID string, roster models.Roster) error {
	path := b.Path(trialID)

	tmp, err := os.CreateTemp(b.dir, ".roster-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set roster file mode: %w", err)
	}
	if err := b.encode(tmp, roster); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write roster file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace roster file: %w", err)
	}
	return nil
}

// Close is a no-op; files are opened per operation.
func (b *RosterFileBackend) Close() error { return nil }

func (b *RosterFileBackend) encode(w io.Writer, roster models.Roster) error {
	if b.format == rostercodec.FormatXLSX {
		return rostercodec.EncodeXLSX(w, roster)
	}
	return rostercodec.EncodeCSV(w, roster)
}

func (b *RosterFileBackend) decode(r io.Reader) (models.Roster, error) {
	if b.format == rostercodec.FormatXLSX {
		return rostercodec.DecodeXLSX(r)
	}
	return rostercodec.DecodeCSV(r)
}

// Ensure RosterFileBackend implements the interface
var _ secondary.RosterBackend = (*RosterFileBackend)(nil)
