package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"invoice-dashboard/cmd/dashboard/config"
	"invoice-dashboard/pkg/logger"
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Invoice rejections and corrections dashboard",
	Long: `Dashboard loads the invoice rejections workbook and the correction events
workbook, aggregates them into the dashboard views and renders them on the
console, as JSON, or as a multi-sheet Excel export.

Examples:
  dashboard analyze --rejections rejeicoes.xlsx --corrections cces.xlsx
  dashboard analyze -r rejeicoes.xlsx -c cces.xls --month 03-2024 --shift T2
  dashboard analyze -r rejeicoes.xlsx -c cces.xlsx --output-format xlsx --export-dir out
  dashboard sample --dir ./sample`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	config.BindEnv(viper.GetViper())

	if err := initLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using default logger\n", err)
	}
}

// initLogger replaces the global logger with one built from configuration
func initLogger() error {
	cfg := logger.DefaultConfig()
	if err := viper.UnmarshalKey("log", cfg); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
