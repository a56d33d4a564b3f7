package reporter

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"invoice-dashboard/internal/analysis"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/internal/taxid"
)

// maxSheetName is the longest worksheet name spreadsheets accept
const maxSheetName = 31

// NamedTable is one exportable view. Key is a camelCase identifier that
// doubles as the source of the worksheet name.
type NamedTable struct {
	Key     string          `json:"key"`
	Title   string          `json:"title,omitempty"`
	Headers []string        `json:"headers"`
	Rows    [][]interface{} `json:"rows"`
}

// IsEmpty reports whether the table has no data rows
func (t NamedTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// DisplayTitle returns Title, or the sheet name derived from Key
func (t NamedTable) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return SheetName(t.Key)
}

var upperCase = regexp.MustCompile(`([A-Z])`)

// SheetName turns a camelCase key into a worksheet name: a space before
// every capital, first letter upper-cased, cut to 31 characters.
func SheetName(key string) string {
	name := upperCase.ReplaceAllString(key, " $1")
	if r, size := utf8.DecodeRuneInString(name); size > 0 {
		name = strings.ToUpper(string(r)) + name[size:]
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

// ExportFileName returns the export's file name stamped with now's date
func ExportFileName(now time.Time) string {
	return "Relatorio_Dashboard_" + now.Format("2006-01-02") + ".xlsx"
}

// EntryTable builds a two-column table from labelled counts
func EntryTable(key, title string, entries []models.AnalysisEntry) NamedTable {
	t := NamedTable{Key: key, Title: title, Headers: []string{"name", "count"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []interface{}{e.Label, e.Count})
	}
	return t
}

// KeyTotalTable builds a two-column table from key totals. Tax id keys are
// formatted for display.
func KeyTotalTable(key, title, keyHeader string, totals []models.KeyTotal) NamedTable {
	t := NamedTable{Key: key, Title: title, Headers: []string{keyHeader, "total"}}
	for _, kt := range totals {
		label := kt.Key
		if keyHeader == "cnpj" {
			label = taxid.Format(label)
		}
		t.Rows = append(t.Rows, []interface{}{label, kt.Total})
	}
	return t
}

// OffenderTable builds a table of tax ids and their correction counts
func OffenderTable(key, title string, offenders []models.OffenderSummary) NamedTable {
	t := NamedTable{Key: key, Title: title, Headers: []string{"cnpj", "count"}}
	for _, o := range offenders {
		t.Rows = append(t.Rows, []interface{}{taxid.Format(o.TaxID), o.Count})
	}
	return t
}

func monthTable(key string, buckets []models.MonthBucket) NamedTable {
	t := NamedTable{Key: key, Headers: []string{"month", "total", "bot", "human", "automation_rate"}}
	for _, b := range buckets {
		t.Rows = append(t.Rows, []interface{}{b.Key, b.Total, b.Bot, b.Human, b.AutomationRate().StringFixed(2)})
	}
	return t
}

func shiftTable(key string, counts []models.ShiftDayTypeCount) NamedTable {
	t := NamedTable{Key: key, Headers: []string{"shift", "week", "saturday", "sunday"}}
	for _, c := range counts {
		t.Rows = append(t.Rows, []interface{}{c.Shift, c.Week, c.Saturday, c.Sunday})
	}
	return t
}

func plantReasonsTable(key string, plants []models.PlantReasons) NamedTable {
	t := NamedTable{Key: key, Headers: []string{"plant", "reason", "count"}}
	for _, p := range plants {
		for _, r := range p.Reasons {
			t.Rows = append(t.Rows, []interface{}{p.Plant, r.Label, r.Count})
		}
	}
	return t
}

func offendersByPlantTable(key string, offenders []analysis.Offender) NamedTable {
	t := NamedTable{Key: key, Headers: []string{"plant", "cnpj", "total"}}
	for _, o := range offenders {
		t.Rows = append(t.Rows, []interface{}{o.Plant, taxid.Format(o.TaxID), o.Count})
	}
	return t
}

// RejectionTables returns the rejection views in export order
func RejectionTables(s *analysis.RejectionSummary) []NamedTable {
	if s == nil {
		return nil
	}
	return []NamedTable{
		EntryTable("topCancelReasons", "", s.TopReasons),
		EntryTable("botVsAnalysts", "", s.ActorSplit),
		monthTable("monthlyVolume", s.MonthlyVolume),
		EntryTable("shiftDistribution", "", s.ShiftDistribution),
		shiftTable("rejectionsByDayTypeAndShift", s.ShiftByDayType),
	}
}

// CorrectionTables returns the correction views in export order
func CorrectionTables(s *analysis.CorrectionSummary) []NamedTable {
	if s == nil {
		return nil
	}
	return []NamedTable{
		EntryTable("correctionsByPlant", "", s.ByPlant),
		EntryTable("correctionReasons", "", s.Reasons),
		KeyTotalTable("correctionsMonthlyVolume", "", "month", s.MonthlyVolume),
		shiftTable("correctionsByShiftAndWeekType", s.ShiftByWeekType),
		KeyTotalTable("topRecipientTaxIds", "", "cnpj", s.TopRecipients),
		plantReasonsTable("topReasonsByPlant", s.ReasonsByPlant),
		offendersByPlantTable("topOffendersByPlant", s.Offenders),
	}
}

// Tables returns every view of the report in export order, empty ones included
func Tables(r *Report) []NamedTable {
	var out []NamedTable
	out = append(out, RejectionTables(r.Rejections)...)
	out = append(out, CorrectionTables(r.Corrections)...)
	out = append(out, r.Drilldowns...)
	return out
}
