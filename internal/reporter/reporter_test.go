package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/analysis"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

var generatedAt = time.Date(2024, time.May, 15, 9, 30, 0, 0, time.UTC)

func sampleReport() *Report {
	return &Report{
		GeneratedAt: generatedAt,
		Rejections: &analysis.RejectionSummary{
			Total:          4,
			AutomationRate: decimal.NewFromInt(50),
			TopReasons: []models.AnalysisEntry{
				{Label: "Rejeição: Duplicidade de NF-e", Count: 3},
				{Label: "Erro de comunicação com a SEFAZ", Count: 1},
			},
			ActorSplit: []models.AnalysisEntry{
				{Label: analysis.ActorBot, Count: 2},
				{Label: analysis.ActorWarRoom, Count: 1},
				{Label: analysis.ActorOther, Count: 1},
			},
			MonthlyVolume: []models.MonthBucket{{Key: "03-2024", Total: 4, Bot: 2, Human: 2}},
			ShiftDistribution: []models.AnalysisEntry{
				{Label: "T1", Count: 2}, {Label: "T2", Count: 1}, {Label: "T3", Count: 0},
			},
			ShiftByDayType: []models.ShiftDayTypeCount{
				{Shift: "T1", Week: 2}, {Shift: "T2", Saturday: 1}, {Shift: "T3"},
			},
		},
		Corrections: &analysis.CorrectionSummary{
			Total:         2,
			Plants:        1,
			ByPlant:       []models.AnalysisEntry{{Label: "P1", Count: 2}},
			Reasons:       []models.AnalysisEntry{{Label: "Correção de Peso", Count: 2}},
			MonthlyVolume: []models.KeyTotal{{Key: "03-2024", Total: 2}},
			TopRecipients: []models.KeyTotal{{Key: "11444777000161", Total: 2}},
			Offenders: []analysis.Offender{
				{Plant: "P1", TaxID: "11444777000161", Count: 2},
			},
			Stats: analysis.CorrectionStats{
				TotalPlants: 1,
				TotalTaxIDs: 1,
				TopOffenders: []analysis.Offender{
					{Plant: "P1", TaxID: "11444777000161", Count: 2},
				},
			},
		},
	}
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{"default config", nil, false},
		{"valid config", DefaultReportConfig(), false},
		{"invalid format", &ReportConfig{Format: "csv", TableMaxWidth: 120}, true},
		{"table width too small", &ReportConfig{Format: FormatConsole, TableMaxWidth: 30}, true},
		{"bar too wide", &ReportConfig{Format: FormatConsole, TableMaxWidth: 80, BarWidth: 60}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Errorf("expected generator but got nil")
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{FormatXLSX, true},
		{"csv", false},
	}

	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.valid {
			t.Errorf("%s.IsValid() = %v, want %v", tt.format, got, tt.valid)
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"topCancelReasons", "Top Cancel Reasons"},
		{"botVsAnalysts", "Bot Vs Analysts"},
		{"monthlyVolume", "Monthly Volume"},
		{"rejectionsByDayTypeAndShift", "Rejections By Day Type And Shif"},
		{"topRecipientTaxIds", "Top Recipient Tax Ids"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := SheetName(tt.key)
			if got != tt.want {
				t.Errorf("SheetName(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if len([]rune(got)) > 31 {
				t.Errorf("sheet name %q longer than 31 characters", got)
			}
		})
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName(generatedAt); got != "Relatorio_Dashboard_2024-05-15.xlsx" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestConsoleReport(t *testing.T) {
	config := DefaultReportConfig()
	config.UseColors = false
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := sampleReport()
	report.AddDrilldown(EntryTable("monthReasons", "Top reasons for 03-2024", report.Rejections.TopReasons))

	var buf bytes.Buffer
	if err := generator.GenerateReport(report, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"INVOICE DASHBOARD REPORT",
		"Period:    all months",
		"=== REJECTIONS ===",
		"Automation rate: 50.00%",
		"Rejeição: Duplicidade de NF-e",
		"Bot (Automação)",
		"03-2024",
		"=== CORRECTIONS ===",
		"11.444.777/0001-61",
		"Top reasons for 03-2024",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q", want)
		}
	}
	if strings.Contains(output, "Top reasons (6-10)") {
		t.Error("second reason window should be hidden when empty")
	}
}

func TestConsoleReportEmpty(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{Format: FormatConsole, TableMaxWidth: 80})

	var buf bytes.Buffer
	if err := generator.GenerateReport(&Report{GeneratedAt: generatedAt}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No data loaded.") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeCorrections = false
	generator, _ := NewReportGenerator(config)

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleReport(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["rejections"]; !ok {
		t.Error("expected rejections in JSON output")
	}
	if _, ok := decoded["corrections"]; ok {
		t.Error("corrections should be excluded by configuration")
	}
}

func TestBuildWorkbookSkipsEmptyTables(t *testing.T) {
	report := sampleReport()
	report.Corrections.ReasonsByPlant = nil

	f, err := BuildWorkbook(Tables(report))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheets[0] != "Top Cancel Reasons" {
		t.Errorf("expected first sheet Top Cancel Reasons, got %v", sheets)
	}
	for _, name := range sheets {
		if name == "Top Reasons By Plant" {
			t.Error("empty table should not get a sheet")
		}
	}

	rows, err := f.GetRows("Bot Vs Analysts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "name" || rows[1][0] != analysis.ActorBot || rows[1][1] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}

	rows, _ = f.GetRows("Top Recipient Tax Ids")
	if len(rows) != 2 || rows[1][0] != "11.444.777/0001-61" {
		t.Errorf("unexpected recipient rows %v", rows)
	}
}

func TestCorrectionTablesOffendersValidOnly(t *testing.T) {
	engine, err := analysis.NewEngine(analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []models.RawRow
	for _, id := range []string{"123", "123", "11444777000162", "11444777000161"} {
		rows = append(rows, models.RawRow{"Planta": "P1", "CNPJ": id, "Motivo": "Correção: peso"})
	}

	var offenders *NamedTable
	for _, table := range CorrectionTables(engine.SummarizeCorrections(rows)) {
		if table.Key == "topOffendersByPlant" {
			offenders = &table
		}
	}
	if offenders == nil {
		t.Fatal("expected a topOffendersByPlant table")
	}
	if len(offenders.Rows) != 1 {
		t.Fatalf("expected one offender row, got %v", offenders.Rows)
	}
	row := offenders.Rows[0]
	if row[0] != "P1" || row[1] != "11.444.777/0001-61" || row[2] != 1 {
		t.Errorf("unexpected offender row %v", row)
	}
	for _, r := range offenders.Rows {
		for _, invalid := range []string{"123", "11444777000162", "11.444.777/0001-62"} {
			if r[1] == invalid {
				t.Errorf("invalid tax id %s exported as offender", invalid)
			}
		}
	}
}

func TestBuildWorkbookNothingToExport(t *testing.T) {
	_, err := BuildWorkbook([]NamedTable{{Key: "empty", Headers: []string{"name"}}})
	if err != ErrNothingToExport {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
}

func TestBuildWorkbookDuplicateNames(t *testing.T) {
	tables := []NamedTable{
		EntryTable("monthReasons", "", []models.AnalysisEntry{{Label: "a", Count: 1}}),
		EntryTable("monthReasons", "", []models.AnalysisEntry{{Label: "b", Count: 1}}),
	}

	f, err := BuildWorkbook(tables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[1] != "Month Reasons (2)" {
		t.Errorf("unexpected sheets %v", sheets)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sampleReport(), dir, generatedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "Relatorio_Dashboard_2024-05-15.xlsx") {
		t.Errorf("unexpected path %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("exported file does not open: %v", err)
	}
	defer f.Close()

	if len(f.GetSheetList()) < 5 {
		t.Errorf("expected the rejection views to be exported, got %v", f.GetSheetList())
	}
}

func TestGenerateReportSafelyFallsBack(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatXLSX
	config.UseColors = false
	srg, err := NewSafeReportGenerator(config, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := srg.GenerateReportSafely(&Report{GeneratedAt: generatedAt}, &buf); err != nil {
		t.Fatalf("expected console fallback, got %v", err)
	}
	if !strings.Contains(buf.String(), "fallback format") {
		t.Errorf("expected fallback notice, got %q", buf.String())
	}

	if err := srg.GenerateReportSafely(nil, &buf); err == nil {
		t.Error("expected an error for a nil report")
	}
}

func TestExportSafelyNothingToExport(t *testing.T) {
	srg, _ := NewSafeReportGenerator(nil, logger.NewNopLogger())

	_, err := srg.ExportSafely(&Report{GeneratedAt: generatedAt}, t.TempDir(), generatedAt)
	if !errors.IsCategory(err, errors.CategoryResource) {
		t.Fatalf("expected a resource error, got %v", err)
	}
}

func TestExportSafelyWritesFile(t *testing.T) {
	srg, _ := NewSafeReportGenerator(nil, logger.NewNopLogger())

	path, err := srg.ExportSafely(sampleReport(), t.TempDir(), generatedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export not written: %v", err)
	}
}
