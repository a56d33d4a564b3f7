package workbook

import (
	"github.com/xuri/excelize/v2"
)

type xlsxWorkbook struct {
	id   string
	path string
	file *excelize.File
}

func openXLSX(id, path string) (*xlsxWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &xlsxWorkbook{id: id, path: path, file: f}, nil
}

func (w *xlsxWorkbook) ID() string { return w.id }

func (w *xlsxWorkbook) Path() string { return w.path }

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) Rows(sheet string) ([][]string, error) {
	return w.file.GetRows(sheet)
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}
