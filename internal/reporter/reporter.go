// Package reporter renders dashboard summaries for people and programs.
//
// Supported output formats:
//   - Console: styled text for terminal display
//   - JSON: structured data for programmatic consumption
//   - XLSX: one worksheet per non-empty view, the dashboard's export format
//
// Example usage:
//
//	gen, err := reporter.NewReportGenerator(nil)
//	report := reporter.NewReport(summary, time.Now())
//	err = gen.GenerateReport(report, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"invoice-dashboard/internal/analysis"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatXLSX:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	// Console formatting options
	UseColors     bool `json:"use_colors" mapstructure:"use_colors"`
	TableMaxWidth int  `json:"table_max_width" mapstructure:"table_max_width"`
	BarWidth      int  `json:"bar_width" mapstructure:"bar_width"`

	IncludeRejections  bool `json:"include_rejections" mapstructure:"include_rejections"`
	IncludeCorrections bool `json:"include_corrections" mapstructure:"include_corrections"`
	IncludeDrilldowns  bool `json:"include_drilldowns" mapstructure:"include_drilldowns"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		UseColors:          true,
		TableMaxWidth:      120,
		BarWidth:           30,
		IncludeRejections:  true,
		IncludeCorrections: true,
		IncludeDrilldowns:  true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	if c.BarWidth < 0 || c.BarWidth > c.TableMaxWidth/2 {
		return fmt.Errorf("bar width must be between 0 and %d, got %d", c.TableMaxWidth/2, c.BarWidth)
	}

	return nil
}

// Report is everything one render or export covers
type Report struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Range       analysis.DateRange          `json:"range"`
	Rejections  *analysis.RejectionSummary  `json:"rejections,omitempty"`
	Corrections *analysis.CorrectionSummary `json:"corrections,omitempty"`
	Drilldowns  []NamedTable                `json:"drilldowns,omitempty"`
}

// NewReport wraps a summary computed at now
func NewReport(summary *analysis.Summary, now time.Time) *Report {
	r := &Report{GeneratedAt: now}
	if summary != nil {
		r.Range = summary.Range
		r.Rejections = summary.Rejections
		r.Corrections = summary.Corrections
	}
	return r
}

// AddDrilldown appends a drill-down view to the report
func (r *Report) AddDrilldown(table NamedTable) {
	r.Drilldowns = append(r.Drilldowns, table)
}

// ReportGenerator generates dashboard reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders report in the configured format to writer
func (rg *ReportGenerator) GenerateReport(report *Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	filtered := rg.filterReport(report)

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(filtered, writer)
	case FormatJSON:
		return rg.generateJSONReport(filtered, writer)
	case FormatXLSX:
		return rg.generateXLSXReport(filtered, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(report *Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateXLSXReport(report *Report, writer io.Writer) error {
	f, err := BuildWorkbook(Tables(report))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// filterReport drops the sections the configuration excludes
func (rg *ReportGenerator) filterReport(report *Report) *Report {
	out := *report
	if !rg.config.IncludeRejections {
		out.Rejections = nil
	}
	if !rg.config.IncludeCorrections {
		out.Corrections = nil
	}
	if !rg.config.IncludeDrilldowns {
		out.Drilldowns = nil
	}
	return &out
}
