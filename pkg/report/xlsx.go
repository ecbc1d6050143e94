package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a header row and data rows to a single-sheet workbook at
// path. Cell values may be strings, integers or floats; excelize renders each
// with its native type so spreadsheet formulas keep working.
func WriteXLSX(path, sheet string, headers []string, rows [][]any) error {
	wb := excelize.NewFile()
	defer wb.Close()

	defaultSheet := wb.GetSheetName(0)
	if defaultSheet != sheet {
		if err := wb.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("naming sheet %q: %w", sheet, err)
		}
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := wb.SetSheetRow(sheet, cell, &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		values := append([]any(nil), row...)
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
