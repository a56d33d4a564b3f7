package reporter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"invoice-dashboard/internal/analysis"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/internal/taxid"
)

const (
	colorBrand   lipgloss.Color = "#f5c2e7"
	colorSection lipgloss.Color = "#89b4fa"
	colorBar     lipgloss.Color = "#a6e3a1"
	colorMuted   lipgloss.Color = "#7f849c"
	colorWarning lipgloss.Color = "#f9e2af"
)

// theme holds the console styles. Without colours every style is blank.
type theme struct {
	title   lipgloss.Style
	section lipgloss.Style
	heading lipgloss.Style
	bar     lipgloss.Style
	muted   lipgloss.Style
	kpi     lipgloss.Style
}

func newTheme(w io.Writer, colors bool) theme {
	r := lipgloss.NewRenderer(w)
	if !colors {
		plain := r.NewStyle()
		return theme{plain, plain, plain, plain, plain, plain}
	}
	return theme{
		title:   r.NewStyle().Bold(true).Foreground(colorBrand),
		section: r.NewStyle().Bold(true).Foreground(colorSection),
		heading: r.NewStyle().Underline(true),
		bar:     r.NewStyle().Foreground(colorBar),
		muted:   r.NewStyle().Foreground(colorMuted),
		kpi:     r.NewStyle().Bold(true).Foreground(colorWarning),
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(report *Report, writer io.Writer) error {
	th := newTheme(writer, rg.config.UseColors)

	fmt.Fprintln(writer, th.title.Render("INVOICE DASHBOARD REPORT"))
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Period:    %s\n\n", describeRange(report.Range))

	if report.Rejections == nil && report.Corrections == nil && len(report.Drilldowns) == 0 {
		fmt.Fprintln(writer, th.muted.Render("No data loaded."))
		return nil
	}

	if s := report.Rejections; s != nil {
		fmt.Fprintln(writer, th.section.Render("=== REJECTIONS ==="))
		fmt.Fprintf(writer, "Total: %s   Automation rate: %s\n\n",
			th.kpi.Render(fmt.Sprint(s.Total)),
			th.kpi.Render(s.AutomationRate.StringFixed(2)+"%"))

		rg.printEntries(writer, th, "Top reasons (1-5)", analysis.Window(s.TopReasons, 0, 5))
		if rest := analysis.Window(s.TopReasons, 5, 10); len(rest) > 0 {
			rg.printEntries(writer, th, "Top reasons (6-10)", rest)
		}
		rg.printEntries(writer, th, "Bot vs analysts", s.ActorSplit)
		rg.printMonthBuckets(writer, th, s.MonthlyVolume)
		rg.printEntries(writer, th, "Shift distribution", s.ShiftDistribution)
		rg.printShiftBreakdown(writer, th, "Shift by day type", s.ShiftByDayType)
	}

	if s := report.Corrections; s != nil {
		fmt.Fprintln(writer, th.section.Render("=== CORRECTIONS ==="))
		fmt.Fprintf(writer, "Total: %s   Plants: %s   Tax ids: %s\n\n",
			th.kpi.Render(fmt.Sprint(s.Total)),
			th.kpi.Render(fmt.Sprint(s.Plants)),
			th.kpi.Render(fmt.Sprint(s.Stats.TotalTaxIDs)))

		rg.printEntries(writer, th, "Corrections by plant", s.ByPlant)
		rg.printEntries(writer, th, "Top reasons (1-5)", analysis.Window(s.Reasons, 0, 5))
		if rest := analysis.Window(s.Reasons, 5, 10); len(rest) > 0 {
			rg.printEntries(writer, th, "Top reasons (6-10)", rest)
		}
		rg.printKeyTotals(writer, th, "Monthly volume", s.MonthlyVolume, false)
		rg.printShiftBreakdown(writer, th, "Shift by week type", s.ShiftByWeekType)
		rg.printKeyTotals(writer, th, "Top recipient tax ids", s.TopRecipients, true)
		rg.printOffenders(writer, th, s.Offenders)
	}

	if len(report.Drilldowns) > 0 {
		fmt.Fprintln(writer, th.section.Render("=== DRILL-DOWN ==="))
		for _, table := range report.Drilldowns {
			rg.printTable(writer, th, table)
		}
	}

	return nil
}

func describeRange(r analysis.DateRange) string {
	if r.IsOpen() {
		return "all months"
	}
	from, to := "…", "…"
	if !r.Start.IsZero() {
		from = r.Start.Format("2006-01-02")
	}
	if !r.End.IsZero() {
		to = r.End.Format("2006-01-02")
	}
	return from + " to " + to
}

// labelWidth is the label column width, leaving room for the bar and count
func (rg *ReportGenerator) labelWidth() int {
	w := rg.config.TableMaxWidth - rg.config.BarWidth - 12
	if w > 60 {
		w = 60
	}
	return w
}

func (rg *ReportGenerator) printEntries(writer io.Writer, th theme, title string, entries []models.AnalysisEntry) {
	fmt.Fprintln(writer, th.heading.Render(title))
	if len(entries) == 0 {
		fmt.Fprintln(writer, th.muted.Render("  (none)"))
		fmt.Fprintln(writer)
		return
	}

	most := 0
	for _, e := range entries {
		if e.Count > most {
			most = e.Count
		}
	}

	width := rg.labelWidth()
	for _, e := range entries {
		fmt.Fprintf(writer, "  %-*s %s %d\n",
			width, clip(e.Label, width),
			th.bar.Render(bar(e.Count, most, rg.config.BarWidth)),
			e.Count)
	}
	fmt.Fprintln(writer)
}

func (rg *ReportGenerator) printKeyTotals(writer io.Writer, th theme, title string, totals []models.KeyTotal, taxIDs bool) {
	entries := make([]models.AnalysisEntry, len(totals))
	for i, kt := range totals {
		label := kt.Key
		if taxIDs {
			label = taxid.Format(label)
		}
		entries[i] = models.AnalysisEntry{Label: label, Count: kt.Total}
	}
	rg.printEntries(writer, th, title, entries)
}

func (rg *ReportGenerator) printMonthBuckets(writer io.Writer, th theme, buckets []models.MonthBucket) {
	fmt.Fprintln(writer, th.heading.Render("Monthly volume"))
	if len(buckets) == 0 {
		fmt.Fprintln(writer, th.muted.Render("  (none)"))
		fmt.Fprintln(writer)
		return
	}

	fmt.Fprintf(writer, "  %-8s %8s %8s %8s %10s\n", "Month", "Total", "Bot", "Human", "Automated")
	for _, b := range buckets {
		fmt.Fprintf(writer, "  %-8s %8d %8d %8d %9s%%\n",
			b.Key, b.Total, b.Bot, b.Human, b.AutomationRate().StringFixed(2))
	}
	fmt.Fprintln(writer)
}

func (rg *ReportGenerator) printShiftBreakdown(writer io.Writer, th theme, title string, counts []models.ShiftDayTypeCount) {
	fmt.Fprintln(writer, th.heading.Render(title))
	fmt.Fprintf(writer, "  %-6s %8s %9s %8s %8s\n", "Shift", "Week", "Saturday", "Sunday", "Total")
	for _, c := range counts {
		fmt.Fprintf(writer, "  %-6s %8d %9d %8d %8d\n", c.Shift, c.Week, c.Saturday, c.Sunday, c.Total())
	}
	fmt.Fprintln(writer)
}

func (rg *ReportGenerator) printOffenders(writer io.Writer, th theme, offenders []analysis.Offender) {
	fmt.Fprintln(writer, th.heading.Render("Top offender per plant"))
	if len(offenders) == 0 {
		fmt.Fprintln(writer, th.muted.Render("  (none)"))
		fmt.Fprintln(writer)
		return
	}

	for _, o := range offenders {
		fmt.Fprintf(writer, "  %-12s %-20s %d\n", clip(o.Plant, 12), taxid.Format(o.TaxID), o.Count)
		for _, r := range analysis.Top(o.Reasons, 3) {
			fmt.Fprintf(writer, "  %s\n", th.muted.Render(fmt.Sprintf("    %s: %d", r.Label, r.Count)))
		}
	}
	fmt.Fprintln(writer)
}

// printTable renders a generic table, charting it when it is label/count shaped
func (rg *ReportGenerator) printTable(writer io.Writer, th theme, table NamedTable) {
	if len(table.Headers) == 2 {
		entries := make([]models.AnalysisEntry, 0, len(table.Rows))
		for _, row := range table.Rows {
			if len(row) < 2 {
				continue
			}
			count, ok := row[1].(int)
			if !ok {
				entries = nil
				break
			}
			entries = append(entries, models.AnalysisEntry{Label: fmt.Sprint(row[0]), Count: count})
		}
		if entries != nil || len(table.Rows) == 0 {
			rg.printEntries(writer, th, table.DisplayTitle(), entries)
			return
		}
	}

	fmt.Fprintln(writer, th.heading.Render(table.DisplayTitle()))
	fmt.Fprintf(writer, "  %s\n", strings.Join(table.Headers, " | "))
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = fmt.Sprint(c)
		}
		fmt.Fprintf(writer, "  %s\n", strings.Join(cells, " | "))
	}
	fmt.Fprintln(writer)
}

// bar draws count scaled against most; any non-zero count gets at least one block
func bar(count, most, width int) string {
	if count <= 0 || most <= 0 || width <= 0 {
		return ""
	}
	n := count * width / most
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-1]) + "…"
}
