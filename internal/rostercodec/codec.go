// Package rostercodec converts rosters to and from their tabular document
// forms: delimited text (CSV) and Excel workbooks. Both forms carry a header
// row with the five roster column names followed by one row per enrollment.
package rostercodec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/enroll/internal/models"
)

// ErrHeaderMismatch is returned when a document's header row is not the
// roster schema.
var ErrHeaderMismatch = errors.New("header does not match roster columns")

// Format names accepted by Encode.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Extension returns the file extension (with dot) for a format.
func Extension(format string) string {
	if format == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// FormatFloat renders a random number with the shortest representation that
// parses back to the same value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// toRow converts an enrollment to its string cells in column order.
func toRow(e models.Enrollment) []string {
	return []string{
		e.Institute,
		e.PatientNumber,
		strconv.Itoa(e.Block),
		FormatFloat(e.RandomNumber),
		e.Arm,
	}
}

func checkHeader(header []string) error {
	if len(header) != len(models.Columns) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(header), len(models.Columns))
	}
	for i, col := range models.Columns {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, header[i], col)
		}
	}
	return nil
}

// parseRow converts the cells of data row n (1-based, excluding the header)
// back into an enrollment.
func parseRow(cells []string, n int) (models.Enrollment, error) {
	if len(cells) < len(models.Columns) {
		padded := make([]string, len(models.Columns))
		copy(padded, cells)
		cells = padded
	}

	block, err := parseBlock(cells[2])
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("row %d: invalid %s %q: %w", n, models.ColumnBlock, cells[2], err)
	}

	rnd, err := strconv.ParseFloat(strings.TrimSpace(cells[3]), 64)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("row %d: invalid %s %q: %w", n, models.ColumnRandomNumber, cells[3], err)
	}

	return models.Enrollment{
		Institute:     cells[0],
		PatientNumber: cells[1],
		Block:         block,
		RandomNumber:  rnd,
		Arm:           cells[4],
	}, nil
}

// parseBlock accepts integers and integral floats ("2.0"), which spreadsheet
// tools produce when a column was ever numeric.
func parseBlock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}
