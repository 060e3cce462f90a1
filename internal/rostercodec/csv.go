package rostercodec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/example/enroll/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV writes the roster as UTF-8 comma separated text with a header row.
func EncodeCSV(w io.Writer, roster models.Roster) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range roster {
		if err := cw.Write(toRow(e)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a roster written by EncodeCSV. An empty document decodes
// to an empty roster; a leading byte order mark is ignored.
func DecodeCSV(r io.Reader) (models.Roster, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.Roster{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	roster := models.Roster{}
	for n := 1; ; n++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", n, err)
		}
		e, err := parseRow(cells, n)
		if err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, nil
}

// MarshalCSV returns the CSV document for a roster.
func MarshalCSV(roster models.Roster) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, roster); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
