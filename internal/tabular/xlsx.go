package tabular

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads one sheet of a workbook. headerRow is 1-based; rows above
// it are skipped. An empty sheet name selects the first sheet.
func ReadXLSX(path, sheet string, headerRow int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	if headerRow < 1 {
		headerRow = 1
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("sheet %s of %s has no header on row %d", sheet, path, headerRow)
	}

	header := make([]string, len(rows[headerRow-1]))
	for i, h := range rows[headerRow-1] {
		header[i] = strings.TrimSpace(h)
	}

	t := New(sheet, header...)
	for _, r := range rows[headerRow:] {
		if len(r) > len(header) {
			r = r[:len(header)]
		}
		if err := t.Append(r...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteXLSX writes each table to its own sheet of a new workbook
func WriteXLSX(path string, tables ...*Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		if err := setRow(f, sheet, 1, t.Columns); err != nil {
			return err
		}
		for j, row := range t.Rows {
			if err := setRow(f, sheet, j+2, row); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if x, ok := ParseFloat(v); ok && !strings.Contains(v, ",") {
			cells[i] = x
		} else {
			cells[i] = v
		}
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
