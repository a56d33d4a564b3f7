package workbook

import (
	"fmt"

	"github.com/shakinm/xlsReader/xls"
)

// xlsWorkbook holds a legacy .xls file read eagerly, since the reader has no
// per-sheet streaming access.
type xlsWorkbook struct {
	id     string
	path   string
	names  []string
	sheets map[string][][]string
}

func openXLS(id, path string) (*xlsWorkbook, error) {
	book, err := xls.OpenFile(path)
	if err != nil {
		return nil, err
	}

	w := &xlsWorkbook{
		id:     id,
		path:   path,
		sheets: make(map[string][][]string),
	}

	for i := 0; i < book.GetNumberSheets(); i++ {
		sheet, err := book.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("read sheet %d: %w", i, err)
		}
		if sheet == nil {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sheet.GetNumberRows()); r++ {
			row, err := sheet.GetRow(r)
			if err != nil || row == nil {
				rows = append(rows, nil)
				continue
			}
			var cells []string
			for _, col := range row.GetCols() {
				if col == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, col.GetString())
			}
			rows = append(rows, cells)
		}

		name := sheet.GetName()
		w.names = append(w.names, name)
		w.sheets[name] = rows
	}

	return w, nil
}

func (w *xlsWorkbook) ID() string { return w.id }

func (w *xlsWorkbook) Path() string { return w.path }

func (w *xlsWorkbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

func (w *xlsWorkbook) Rows(sheet string) ([][]string, error) {
	rows, ok := w.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s does not exist", sheet)
	}
	return rows, nil
}

func (w *xlsWorkbook) Close() error { return nil }
