package loader

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/ingest"
	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

type testSheet struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(t *testing.T, file string, sheets ...testSheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheet.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), file)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func rejectionsWorkbook(t *testing.T) string {
	return writeWorkbook(t, "rejeicoes.xlsx",
		testSheet{"Lista Erros Sefaz", [][]interface{}{
			{"539", "Rejeição: Duplicidade de NF-e"},
			{"204", "Rejeição: Duplicidade de NF-e com diferença"},
		}},
		testSheet{"Base Consolidado", [][]interface{}{
			{"Modificado por", "Data de modificação", "Código status", "Turno", "Tipo Semana"},
			{"NFERPABRAZIL", "2024-03-10", "539", "T1", "Semana"},
			{"KATIANE", "2024-03-11", "", "T2", "Sábado"},
			{"", "", "", "", ""},
			{"jdoe", "2024-04-01", "204", "T3", "Domingo"},
		}},
	)
}

func correctionsWorkbook(t *testing.T) string {
	return writeWorkbook(t, "correcoes.xlsx",
		testSheet{"Listagem de Eventos", [][]interface{}{
			{"Data", "Planta", "CNPJ", "Texto/ Motivo"},
			{"03-2024", "P1", "11444777000161", "Correção: peso 120"},
			{"04-2024", "P2", "11444777000162", "placa"},
		}},
	)
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(nil, ingest.NoopYielder{}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l
}

func TestLoad(t *testing.T) {
	l := newTestLoader(t)

	var updates []Progress
	l.AddProgressCallback(func(p Progress) {
		updates = append(updates, p)
	})

	ds, err := l.Load(context.Background(), &Request{
		RejectionsFile:  rejectionsWorkbook(t),
		CorrectionsFile: correctionsWorkbook(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds.Rejections) != 3 {
		t.Errorf("expected 3 rejections, got %d", len(ds.Rejections))
	}
	if len(ds.Corrections) != 2 {
		t.Errorf("expected 2 corrections, got %d", len(ds.Corrections))
	}
	if desc, ok := ds.SefazErrors.Lookup("539"); !ok || desc != "Rejeição: Duplicidade de NF-e" {
		t.Errorf("unexpected SEFAZ lookup %q, %v", desc, ok)
	}
	if got := ds.Rejections[1].Get("Tipo Semana"); got != "Sábado" {
		t.Errorf("unexpected day type %q", got)
	}

	if l.State() != StateIdle {
		t.Errorf("expected idle after a finished load, got %s", l.State())
	}
	if got := l.Last(); got.State != StateSuccess || got.Percent != 100 {
		t.Errorf("expected a successful last run at 100%%, got %+v", got)
	}

	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	runID := updates[0].RunID
	if runID == "" {
		t.Error("expected a run id")
	}
	last := 0.0
	for _, u := range updates {
		if u.RunID != runID {
			t.Errorf("run id changed mid-load: %s", u.RunID)
		}
		if u.Percent < last {
			t.Errorf("progress went backwards: %v after %v", u.Percent, last)
		}
		last = u.Percent
	}
	if last != 100 {
		t.Errorf("expected to finish at 100, got %v", last)
	}

	for _, checkpoint := range []float64{5, 10, 20} {
		found := false
		for _, u := range updates {
			if u.Percent == checkpoint {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %v%% checkpoint", checkpoint)
		}
	}

	if final := updates[len(updates)-1]; final.State != StateSuccess {
		t.Errorf("expected callbacks to see success last, got %s", final.State)
	}

	l.Reset()
	if l.State() != StateIdle || l.Last().State != StateIdle {
		t.Errorf("expected idle after reset, got %s / %s", l.State(), l.Last().State)
	}
}

func TestLoadMissingSheet(t *testing.T) {
	l := newTestLoader(t)

	rejections := writeWorkbook(t, "rejeicoes.xlsx",
		testSheet{"Base Consolidado", [][]interface{}{{"Turno"}, {"T1"}}},
	)

	ds, err := l.Load(context.Background(), &Request{
		RejectionsFile:  rejections,
		CorrectionsFile: correctionsWorkbook(t),
	})
	if err == nil {
		t.Fatal("expected an error for the missing SEFAZ sheet")
	}
	if ds != nil {
		t.Error("no partial dataset should be returned")
	}

	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeSheetNotFound {
		t.Fatalf("expected sheet_not_found, got %v", err)
	}

	if l.State() != StateIdle {
		t.Errorf("expected idle after a failed load, got %s", l.State())
	}
	if l.Last().State != StateFailure {
		t.Errorf("expected a failed last run, got %s", l.Last().State)
	}
	banner := l.Last().Error
	if !strings.HasPrefix(banner, "Erro no processamento: sheet 'Lista Erros Sefaz' not found") ||
		!strings.HasSuffix(banner, "Verifique os nomes das abas.") {
		t.Errorf("unexpected banner %q", banner)
	}

	l.Reset()
	if l.Last().Error != "" {
		t.Errorf("expected reset to clear the banner, got %q", l.Last().Error)
	}
}

func TestLoadInputErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		code errors.ErrorCode
	}{
		{"nil request", nil, errors.CodeMissingFile},
		{"missing corrections", &Request{RejectionsFile: "a.xlsx"}, errors.CodeMissingFile},
		{"wrong type", &Request{RejectionsFile: "a.csv", CorrectionsFile: "b.xlsx"}, errors.CodeInvalidFileType},
		{"absent file", &Request{RejectionsFile: "/nonexistent/a.xlsx", CorrectionsFile: "/nonexistent/b.xlsx"}, errors.CodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(t)
			_, err := l.Load(context.Background(), tt.req)
			de, ok := errors.AsDashboardError(err)
			if !ok || de.Code != tt.code {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if de.Category != errors.CategoryInput {
				t.Errorf("expected an input error, got %s", de.Category)
			}
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	l := newTestLoader(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, &Request{
		RejectionsFile:  rejectionsWorkbook(t),
		CorrectionsFile: correctionsWorkbook(t),
	})
	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeCancelled {
		t.Fatalf("expected cancelled, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Error("expected the context error to be preserved")
	}
	if l.Last().State != StateFailure {
		t.Errorf("expected failure state, got %s", l.Last().State)
	}
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	c.Sheets.Corrections = ""
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a blank sheet name")
	}

	c = DefaultConfig()
	c.Ingest.ChunkSize = 0
	if _, err := NewLoader(c, nil, logger.NewNopLogger()); err == nil {
		t.Error("expected an error for a zero chunk size")
	}
}

func TestUserMessage(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Error("nil error should render empty")
	}
	got := UserMessage(stderrors.New("boom"))
	if got != "Erro no processamento: boom. Verifique os nomes das abas." {
		t.Errorf("unexpected message %q", got)
	}
}
