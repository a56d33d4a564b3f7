package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"invoice-dashboard/cmd/dashboard/config"
	"invoice-dashboard/internal/analysis"
	"invoice-dashboard/internal/dates"
	"invoice-dashboard/internal/ingest"
	"invoice-dashboard/internal/loader"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/internal/reporter"
	"invoice-dashboard/internal/taxid"
	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

const dateLayout = "2006-01-02"

// analyzeOptions holds the resolved analyze flags
type analyzeOptions struct {
	RejectionsFile  string
	CorrectionsFile string
	StartDate       string
	EndDate         string
	AllMonths       bool
	Month           string
	Shift           string
	DayType         string
	Plant           string
	TaxID           string
	OutputFormat    string
	OutputFile      string
	ExportDir       string
	ShowProgress    bool
}

var analyzeFlags analyzeOptions

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Load both workbooks and render the dashboard",
	Long: `Analyze loads the rejections workbook (sheets "Lista Erros Sefaz" and
"Base Consolidado") and the correction events workbook (sheet "Listagem de
Eventos"), filters them to a month range and renders every dashboard view.

Without --start-date/--end-date the last four months are shown; --all shows
every month. Drill-down flags add focused views on top of the dashboard.

Examples:
  # Dashboard for the default period
  dashboard analyze --rejections rejeicoes.xlsx --corrections eventos.xlsx

  # Explicit period, JSON output
  dashboard analyze -r rejeicoes.xlsx -c eventos.xlsx \
    --start-date 2024-01-01 --end-date 2024-03-31 --output-format json

  # Drill into a month, a shift on Saturdays and a plant
  dashboard analyze -r rejeicoes.xlsx -c eventos.xlsx \
    --month 03-2024 --shift T2 --day-type sabado --plant "P1 Jundiaí"

  # Excel export of every view
  dashboard analyze -r rejeicoes.xlsx -c eventos.xlsx --output-format xlsx --export-dir out`,

	PreRunE: validateAnalyzeFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()
	flags.StringVarP(&analyzeFlags.RejectionsFile, "rejections", "r", "", "rejections workbook, .xlsx or .xls (required)")
	flags.StringVarP(&analyzeFlags.CorrectionsFile, "corrections", "c", "", "correction events workbook, .xlsx or .xls (required)")

	flags.StringVar(&analyzeFlags.StartDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	flags.StringVar(&analyzeFlags.EndDate, "end-date", "", "filter end date (YYYY-MM-DD)")
	flags.BoolVar(&analyzeFlags.AllMonths, "all", false, "show every month instead of the default period")

	flags.StringVar(&analyzeFlags.Month, "month", "", "drill down into a month (MM-YYYY)")
	flags.StringVar(&analyzeFlags.Shift, "shift", "", "drill down into a shift: T1, T2, T3")
	flags.StringVar(&analyzeFlags.DayType, "day-type", "", "narrow the shift drill-down: semana, sabado, domingo")
	flags.StringVar(&analyzeFlags.Plant, "plant", "", "show the top recipients of a plant")
	flags.StringVar(&analyzeFlags.TaxID, "tax-id", "", "show the correction reasons of a recipient tax id")

	flags.StringVarP(&analyzeFlags.OutputFormat, "output-format", "f", "", "output format: console, json, xlsx (default from config)")
	flags.StringVarP(&analyzeFlags.OutputFile, "output-file", "o", "", "output file path (default: stdout)")
	flags.StringVar(&analyzeFlags.ExportDir, "export-dir", "", "also write the Excel export into this directory")
	flags.BoolVar(&analyzeFlags.ShowProgress, "progress", false, "show load progress")

	for _, name := range []string{
		"rejections", "corrections", "start-date", "end-date", "all",
		"month", "shift", "day-type", "plant", "tax-id",
		"output-format", "output-file", "export-dir", "progress",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func readAnalyzeOptions() analyzeOptions {
	return analyzeOptions{
		RejectionsFile:  viper.GetString("rejections"),
		CorrectionsFile: viper.GetString("corrections"),
		StartDate:       viper.GetString("start-date"),
		EndDate:         viper.GetString("end-date"),
		AllMonths:       viper.GetBool("all"),
		Month:           viper.GetString("month"),
		Shift:           strings.ToUpper(viper.GetString("shift")),
		DayType:         viper.GetString("day-type"),
		Plant:           viper.GetString("plant"),
		TaxID:           viper.GetString("tax-id"),
		OutputFormat:    viper.GetString("output-format"),
		OutputFile:      viper.GetString("output-file"),
		ExportDir:       viper.GetString("export-dir"),
		ShowProgress:    viper.GetBool("progress"),
	}
}

func validateAnalyzeFlags(cmd *cobra.Command, args []string) error {
	analyzeFlags = readAnalyzeOptions()
	return analyzeFlags.Validate()
}

// Validate checks the options before anything is loaded
func (o analyzeOptions) Validate() error {
	if o.RejectionsFile == "" {
		return errors.InputError(errors.CodeMissingFile, "rejections", nil).
			WithSuggestion("pass the rejections workbook with --rejections")
	}
	if o.CorrectionsFile == "" {
		return errors.InputError(errors.CodeMissingFile, "corrections", nil).
			WithSuggestion("pass the correction events workbook with --corrections")
	}
	if err := validateFileExists(o.RejectionsFile); err != nil {
		return err
	}
	if err := validateFileExists(o.CorrectionsFile); err != nil {
		return err
	}

	if o.OutputFormat != "" && !reporter.OutputFormat(strings.ToLower(o.OutputFormat)).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", o.OutputFormat,
			fmt.Errorf("valid formats: console, json, xlsx"))
	}

	if o.AllMonths && (o.StartDate != "" || o.EndDate != "") {
		return errors.ConfigurationError(errors.CodeConfigConflict, "all", true,
			fmt.Errorf("--all cannot be combined with --start-date or --end-date"))
	}
	if _, err := o.dateRange(time.Now(), config.DefaultMonths); err != nil {
		return err
	}

	if o.Month != "" {
		if _, ok := dates.ParseBucketKey(o.Month); !ok {
			return errors.InputError(errors.CodeInvalidFilter, o.Month, nil)
		}
	}
	if o.Shift != "" && !isShift(o.Shift) {
		return errors.InputError(errors.CodeInvalidFilter, o.Shift, nil).
			WithSuggestion("shifts are T1, T2 and T3")
	}
	if o.DayType != "" {
		if o.Shift == "" {
			return errors.ConfigurationError(errors.CodeConfigConflict, "day-type", o.DayType,
				fmt.Errorf("--day-type requires --shift"))
		}
		if _, ok := analysis.ParseDayType(o.DayType); !ok {
			return errors.InputError(errors.CodeInvalidFilter, o.DayType, nil).
				WithSuggestion("day types are semana, sabado and domingo")
		}
	}
	if o.TaxID != "" && taxid.Digits(o.TaxID) == "" {
		return errors.InputError(errors.CodeInvalidFilter, o.TaxID, nil).
			WithSuggestion("tax ids must contain digits")
	}

	if o.OutputFile != "" {
		dir := filepath.Dir(o.OutputFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return errors.ResourceError(errors.CodeOutputFailed, dir, err)
		}
	}
	return nil
}

func isShift(s string) bool {
	for _, shift := range analysis.Shifts {
		if s == shift {
			return true
		}
	}
	return false
}

// dateRange resolves the period flags. Without any the default window
// of months ending with now's month applies.
func (o analyzeOptions) dateRange(now time.Time, months int) (analysis.DateRange, error) {
	if o.AllMonths {
		return analysis.DateRange{}, nil
	}
	if o.StartDate == "" && o.EndDate == "" {
		return analysis.DefaultRange(now, months), nil
	}

	var r analysis.DateRange
	if o.StartDate != "" {
		t, err := time.Parse(dateLayout, o.StartDate)
		if err != nil {
			return r, errors.InputError(errors.CodeInvalidFilter, o.StartDate, err)
		}
		r.Start = t
	}
	if o.EndDate != "" {
		t, err := time.Parse(dateLayout, o.EndDate)
		if err != nil {
			return r, errors.InputError(errors.CodeInvalidFilter, o.EndDate, err)
		}
		r.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return r, errors.ConfigurationError(errors.CodeConfigConflict, "start-date", o.StartDate,
			fmt.Errorf("start date cannot be after end date"))
	}
	return r, nil
}

func validateFileExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.InputError(errors.CodeFileNotFound, path, err)
	}
	if os.IsPermission(err) {
		return errors.InputError(errors.CodeFilePermission, path, err)
	}
	if err != nil {
		return errors.InputError(errors.CodeFileNotFound, path, err)
	}
	if info.IsDir() {
		return errors.InputError(errors.CodeInvalidFileType, path, fmt.Errorf("%s is a directory", path))
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "config", viper.ConfigFileUsed(), err)
	}

	var output io.Writer = os.Stdout
	if analyzeFlags.OutputFile != "" {
		file, err := os.Create(analyzeFlags.OutputFile)
		if err != nil {
			return errors.ResourceError(errors.CodeOutputFailed, analyzeFlags.OutputFile, err)
		}
		defer file.Close()
		output = file
	}

	a := &analyzer{
		config:   appConfig,
		options:  analyzeFlags,
		logger:   logger.GetGlobalLogger().WithComponent("analyze"),
		yielder:  ingest.SchedulerYielder{},
		out:      output,
		progress: os.Stderr,
		now:      time.Now(),
	}
	return a.run(ctx)
}

// analyzer runs one analyze invocation
type analyzer struct {
	config   *config.Config
	options  analyzeOptions
	logger   logger.Logger
	yielder  ingest.Yielder
	out      io.Writer
	progress io.Writer
	now      time.Time
}

func (a *analyzer) run(ctx context.Context) error {
	l, err := loader.NewLoader(a.config.LoaderConfig(), a.yielder, a.logger)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "loader", a.config.Sheets, err)
	}
	if a.options.ShowProgress {
		l.AddProgressCallback(func(p loader.Progress) {
			fmt.Fprintf(a.progress, "\r[%5.1f%%] %-40s", p.Percent, p.Step)
			if p.State != loader.StateLoading {
				fmt.Fprintln(a.progress)
			}
		})
	}

	ds, err := l.Load(ctx, &loader.Request{
		RejectionsFile:  a.options.RejectionsFile,
		CorrectionsFile: a.options.CorrectionsFile,
	})
	if err != nil {
		return err
	}

	engine, err := analysis.NewEngine(a.config.AnalysisConfig())
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "analysis", a.config.Analysis, err)
	}

	r, err := a.options.dateRange(a.now, a.config.Filter.DefaultMonths)
	if err != nil {
		return err
	}

	report := reporter.NewReport(engine.Summarize(ds, r), a.now)
	for _, table := range drilldowns(engine, ds, r, a.options) {
		report.AddDrilldown(table)
	}

	a.logger.WithFields(logger.Fields{
		"rejections":  len(ds.Rejections),
		"corrections": len(ds.Corrections),
		"drilldowns":  len(report.Drilldowns),
	}).Debug("Dashboard computed")

	return a.render(report)
}

func (a *analyzer) render(report *reporter.Report) error {
	reportConfig, err := a.config.ReportConfig(a.options.OutputFormat)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", a.options.OutputFormat, err)
	}

	generator, err := reporter.NewSafeReportGenerator(reportConfig, a.logger)
	if err != nil {
		return err
	}

	if reportConfig.Format == reporter.FormatXLSX && a.options.OutputFile == "" {
		dir := a.options.ExportDir
		if dir == "" {
			dir = "."
		}
		path, err := generator.ExportSafely(report, dir, a.now)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.progress, "Export written to %s\n", path)
		return nil
	}

	if err := generator.GenerateReportSafely(report, a.out); err != nil {
		return err
	}

	if a.options.ExportDir != "" && reportConfig.Format != reporter.FormatXLSX {
		path, err := generator.ExportSafely(report, a.options.ExportDir, a.now)
		if err != nil {
			// the rendered dashboard stays valid
			NewCLIErrorHandler().HandleError(err)
			return nil
		}
		fmt.Fprintf(a.progress, "Export written to %s\n", path)
	}
	return nil
}

// drilldowns builds the focused views requested by the drill-down flags,
// over the rows inside r.
func drilldowns(engine *analysis.Engine, ds *models.Dataset, r analysis.DateRange, o analyzeOptions) []reporter.NamedTable {
	rejections := analysis.FilterRejections(ds.Rejections, r)
	corrections := analysis.FilterCorrections(ds.Corrections, r)

	var tables []reporter.NamedTable

	if o.Month != "" {
		tables = append(tables,
			reporter.EntryTable("monthReasons",
				"Top rejection reasons in "+o.Month,
				engine.MonthReasons(rejections, ds.SefazErrors, o.Month)),
			reporter.EntryTable("correctionMonthReasons",
				"Top correction reasons in "+o.Month,
				engine.CorrectionMonthReasons(corrections, o.Month)),
			reporter.KeyTotalTable("monthRecipients",
				"Top recipient tax ids in "+o.Month, "cnpj",
				engine.MonthRecipients(corrections, o.Month)),
		)
	}

	if o.Shift != "" {
		if day, ok := analysis.ParseDayType(o.DayType); ok {
			tables = append(tables, reporter.EntryTable("shiftDayTypeReasons",
				fmt.Sprintf("Top rejection reasons on %s (%s)", o.Shift, day),
				engine.ShiftDayTypeReasons(rejections, ds.SefazErrors, o.Shift, day)))
		} else {
			tables = append(tables, reporter.EntryTable("shiftReasons",
				"Top rejection reasons on "+o.Shift,
				engine.ShiftReasons(rejections, ds.SefazErrors, o.Shift)))
		}
	}

	if o.Plant != "" {
		tables = append(tables,
			reporter.KeyTotalTable("plantRecipients",
				"Top recipient tax ids at "+o.Plant, "cnpj",
				engine.PlantRecipients(corrections, o.Plant)),
			reporter.OffenderTable("plantOffenders",
				"Offending tax ids at "+o.Plant,
				analysis.TopOffendersByPlant(corrections, o.Plant)),
		)
	}

	if o.TaxID != "" {
		title := "Correction reasons for " + taxid.Format(o.TaxID)
		if o.Month != "" {
			title += " in " + o.Month
		}
		tables = append(tables, reporter.EntryTable("taxIdReasons", title,
			engine.TaxIDReasons(corrections, o.TaxID, o.Month)))
	}

	return tables
}
