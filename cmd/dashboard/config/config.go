package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"invoice-dashboard/internal/analysis"
	"invoice-dashboard/internal/ingest"
	"invoice-dashboard/internal/loader"
	"invoice-dashboard/internal/reporter"
	"invoice-dashboard/pkg/logger"
)

// DefaultMonths is the width of the default date filter
const DefaultMonths = 4

// AnalysisSettings holds the ranking limits
type AnalysisSettings struct {
	TopReasons    int `mapstructure:"top_reasons"`
	DrilldownTop  int `mapstructure:"drilldown_top"`
	TopRecipients int `mapstructure:"top_recipients"`
}

// ActorSettings holds the keywords used to classify the modified-by column
type ActorSettings struct {
	Bot     []string `mapstructure:"bot"`
	WarRoom []string `mapstructure:"war_room"`
}

// FilterSettings controls the date window applied when no explicit range is given
type FilterSettings struct {
	DefaultMonths int `mapstructure:"default_months"`
}

// Config is the application configuration as read from file, env and flags
type Config struct {
	Sheets   loader.SheetNames     `mapstructure:"sheets"`
	Ingest   ingest.Config         `mapstructure:"ingest"`
	Analysis AnalysisSettings      `mapstructure:"analysis"`
	Actors   ActorSettings         `mapstructure:"actors"`
	Filter   FilterSettings        `mapstructure:"filter"`
	Report   reporter.ReportConfig `mapstructure:"report"`
	Log      logger.Config         `mapstructure:"log"`
}

// SetDefaults registers every key with its default so that env variables
// and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	sheets := loader.DefaultSheetNames()
	v.SetDefault("sheets.sefaz_errors", sheets.SefazErrors)
	v.SetDefault("sheets.rejections", sheets.Rejections)
	v.SetDefault("sheets.corrections", sheets.Corrections)

	v.SetDefault("ingest.chunk_size", ingest.DefaultChunkSize)

	a := analysis.DefaultConfig()
	v.SetDefault("analysis.top_reasons", a.TopReasons)
	v.SetDefault("analysis.drilldown_top", a.DrilldownTop)
	v.SetDefault("analysis.top_recipients", a.TopRecipients)
	v.SetDefault("actors.bot", a.BotKeywords)
	v.SetDefault("actors.war_room", a.WarRoomKeywords)

	v.SetDefault("filter.default_months", DefaultMonths)

	r := reporter.DefaultReportConfig()
	v.SetDefault("report.format", string(r.Format))
	v.SetDefault("report.use_colors", r.UseColors)
	v.SetDefault("report.table_max_width", r.TableMaxWidth)
	v.SetDefault("report.bar_width", r.BarWidth)
	v.SetDefault("report.include_rejections", r.IncludeRejections)
	v.SetDefault("report.include_corrections", r.IncludeCorrections)
	v.SetDefault("report.include_drilldowns", r.IncludeDrilldowns)

	l := logger.DefaultConfig()
	v.SetDefault("log.level", string(l.Level))
	v.SetDefault("log.format", string(l.Format))
	v.SetDefault("log.output", string(l.Output))
	v.SetDefault("log.file", "")
}

// BindEnv makes every key overridable through DASHBOARD_<SECTION>_<KEY>
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every section of the configuration
func (c *Config) Validate() error {
	if err := c.LoaderConfig().Validate(); err != nil {
		return fmt.Errorf("invalid loader config: %w", err)
	}
	if err := c.AnalysisConfig().Validate(); err != nil {
		return fmt.Errorf("invalid analysis config: %w", err)
	}
	if c.Filter.DefaultMonths < 1 {
		return fmt.Errorf("invalid filter config: default months must be at least 1, got %d", c.Filter.DefaultMonths)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("invalid report config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

// LoaderConfig creates the workbook loader configuration
func (c *Config) LoaderConfig() *loader.Config {
	ingestConfig := c.Ingest
	return &loader.Config{
		Sheets: c.Sheets,
		Ingest: &ingestConfig,
	}
}

// AnalysisConfig creates the aggregation engine configuration
func (c *Config) AnalysisConfig() *analysis.Config {
	return &analysis.Config{
		TopReasons:      c.Analysis.TopReasons,
		DrilldownTop:    c.Analysis.DrilldownTop,
		TopRecipients:   c.Analysis.TopRecipients,
		BotKeywords:     c.Actors.Bot,
		WarRoomKeywords: c.Actors.WarRoom,
	}
}

// ReportConfig creates a report configuration. A non-empty format
// overrides the configured one.
func (c *Config) ReportConfig(format string) (*reporter.ReportConfig, error) {
	config := c.Report
	if format != "" {
		config.Format = reporter.OutputFormat(strings.ToLower(format))
	}
	if config.Format != reporter.FormatConsole {
		config.UseColors = false
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoggerConfig creates the logger configuration; verbose forces debug level
func (c *Config) LoggerConfig(verbose bool) *logger.Config {
	config := c.Log
	if verbose {
		config.Level = logger.DebugLevel
	}
	return &config
}

// DefaultRange is the date window applied when the user gives none
func (c *Config) DefaultRange(now time.Time) analysis.DateRange {
	return analysis.DefaultRange(now, c.Filter.DefaultMonths)
}
