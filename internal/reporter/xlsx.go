package reporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ErrNothingToExport is returned when every table is empty
var ErrNothingToExport = errors.New("reporter: no non-empty view to export")

// BuildWorkbook writes one worksheet per non-empty table, in order. The
// caller owns the returned file and must Close it.
func BuildWorkbook(tables []NamedTable) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	written := 0
	for _, table := range tables {
		if table.IsEmpty() {
			continue
		}

		name := uniqueSheetName(SheetName(table.Key), used)
		if written == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		if err := writeTable(f, name, table, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
		written++
	}

	if written == 0 {
		f.Close()
		return nil, ErrNothingToExport
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, sheet string, table NamedTable, headerStyle int) error {
	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %q: %w", sheet, err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+1, sheet, err)
		}
	}

	if len(table.Headers) > 0 {
		f.SetColWidth(sheet, "A", "A", 45)
		if len(table.Headers) > 1 {
			last, _ := excelize.ColumnNumberToName(len(table.Headers))
			f.SetColWidth(sheet, "B", last, 16)
		}
	}
	return nil
}

// uniqueSheetName suffixes name when an earlier table already took it
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(name)
		if len(base)+utf8.RuneCountInString(suffix) > maxSheetName {
			base = base[:maxSheetName-utf8.RuneCountInString(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[candidate] = true
	return candidate
}

// Export writes the report's tables to dir under ExportFileName(now) and
// returns the written path.
func Export(report *Report, dir string, now time.Time) (string, error) {
	f, err := BuildWorkbook(Tables(report))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ExportFileName(now))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
