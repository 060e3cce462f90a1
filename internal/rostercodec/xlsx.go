package rostercodec

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/enroll/internal/models"
)

// SheetName is the worksheet holding the roster in workbooks we write.
const SheetName = "Roster"

// EncodeXLSX writes the roster as a single-sheet Excel workbook.
func EncodeXLSX(w io.Writer, roster models.Roster) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, col := range models.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range roster {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Institute, e.PatientNumber, e.Block, e.RandomNumber, e.Arm}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// DecodeXLSX reads a roster from the first worksheet of a workbook.
func DecodeXLSX(r io.Reader) (models.Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return models.Roster{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return models.Roster{}, nil
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	roster := models.Roster{}
	for n, cells := range rows[1:] {
		if isBlankRow(cells) {
			continue
		}
		e, err := parseRow(cells, n+1)
		if err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
