package workbook

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"invoice-dashboard/pkg/errors"
)

func writeXLSX(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestOpenXLSX(t *testing.T) {
	path := writeXLSX(t, map[string][][]interface{}{
		"Base Consolidado": {
			{"Turno", "Motivo", "Motivo"},
			{"T1", "a", "b"},
			{"", "", ""},
			{"T2"},
		},
	})

	wb, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	if wb.ID() == "" {
		t.Error("expected a workbook id")
	}

	name, err := ResolveSheet(wb, "base consolidado")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cells, err := wb.Rows(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sheet := NewSheet(name, cells)
	if sheet.Len() != 2 {
		t.Fatalf("expected 2 non-blank rows, got %d", sheet.Len())
	}

	records := sheet.Records()
	want0 := map[string]string{"Turno": "T1", "Motivo": "a", "Motivo__1": "b"}
	if !reflect.DeepEqual(map[string]string(records[0]), want0) {
		t.Errorf("row 0 = %v, want %v", records[0], want0)
	}
	want1 := map[string]string{"Turno": "T2", "Motivo": "", "Motivo__1": ""}
	if !reflect.DeepEqual(map[string]string(records[1]), want1) {
		t.Errorf("row 1 = %v, want %v", records[1], want1)
	}
}

func TestResolveSheetMissing(t *testing.T) {
	path := writeXLSX(t, map[string][][]interface{}{
		"Planilha1": {{"a"}},
	})

	wb, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	_, err = ResolveSheet(wb, "Listagem de Eventos")
	if err == nil {
		t.Fatal("expected missing sheet error")
	}
	dErr, ok := errors.AsDashboardError(err)
	if !ok || dErr.Code != errors.CodeSheetNotFound {
		t.Errorf("expected sheet_not_found, got %v", err)
	}
}

func TestOpenInputErrors(t *testing.T) {
	dir := t.TempDir()

	badXLS := filepath.Join(dir, "broken.xls")
	if err := os.WriteFile(badXLS, []byte("not a workbook"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		category errors.ErrorCategory
		code     errors.ErrorCode
	}{
		{"empty path", "", errors.CategoryInput, errors.CodeMissingFile},
		{"wrong type", filepath.Join(dir, "data.csv"), errors.CategoryInput, errors.CodeInvalidFileType},
		{"missing", filepath.Join(dir, "absent.xlsx"), errors.CategoryInput, errors.CodeFileNotFound},
		{"corrupt", badXLS, errors.CategoryStructural, errors.CodeWorkbookUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			dErr, ok := errors.AsDashboardError(err)
			if !ok {
				t.Fatalf("expected DashboardError, got %v", err)
			}
			if dErr.Category != tt.category || dErr.Code != tt.code {
				t.Errorf("got %s/%s, want %s/%s", dErr.Category, dErr.Code, tt.category, tt.code)
			}
		})
	}
}

func TestUniqueHeaders(t *testing.T) {
	got := UniqueHeaders([]string{" Motivo ", "Motivo", "", "Motivo", " "})
	want := []string{"Motivo", "Motivo__1", "__EMPTY", "Motivo__2", "__EMPTY__1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueHeaders() = %v, want %v", got, want)
	}
}

func TestPairs(t *testing.T) {
	got := Pairs([][]string{{"539", "Duplicidade"}, {}, {"204"}, {"100", "Autorizado", "extra"}})
	want := [][]string{{"539", "Duplicidade"}, {"204", ""}, {"100", "Autorizado"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
}

func TestSheetRowOutOfRange(t *testing.T) {
	s := NewSheet("x", [][]string{{"a"}, {"1"}})
	if _, err := s.Row(1); err == nil {
		t.Error("expected out of range error")
	}
	if NewSheet("empty", nil).Len() != 0 {
		t.Error("empty sheet should have no rows")
	}
}
