package reporter

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and fallbacks. A
// failed export degrades to a console rendering; it never loses the view.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report",
			config,
			err,
		).WithSuggestion("check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders report, falling back to the console format
// when the requested format fails.
func (srg *SafeReportGenerator) GenerateReportSafely(report *Report, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Info("Starting report generation")

	if err := srg.validateInputs(report, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	err := srg.GenerateReport(report, writer)
	if err == nil {
		srg.logger.Info("Report generation completed successfully")
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")
	if srg.config.Format != FormatConsole {
		return srg.generateWithFormatFallback(report, writer, err)
	}
	return srg.wrapGenerationError(err)
}

// ExportSafely writes the xlsx export into dir. When dir cannot be written
// the export is retried in the system temp directory.
func (srg *SafeReportGenerator) ExportSafely(report *Report, dir string, now time.Time) (string, error) {
	if report == nil {
		return "", errors.InternalError(errors.CodeUnexpectedError, "export", fmt.Errorf("report is nil"))
	}

	var path string
	err := logger.TimedOperation("export", srg.logger, func() error {
		var err error
		path, err = Export(srg.filterReport(report), dir, now)
		return err
	})
	if err == nil {
		srg.logger.WithField("file", path).Info("Export written")
		return path, nil
	}

	if stderrors.Is(err, ErrNothingToExport) {
		return "", errors.ResourceError(errors.CodeExportFailed, "xlsx", err).
			WithSuggestion("every view is empty for the selected period; widen the date range")
	}

	if !isFileError(err) {
		return "", errors.ResourceError(errors.CodeExportFailed, "xlsx", err)
	}

	backupDir := os.TempDir()
	srg.logger.WithFields(logger.Fields{
		"original_dir": dir,
		"backup_dir":   backupDir,
	}).Warn("Attempting export to backup location")

	path, backupErr := Export(srg.filterReport(report), backupDir, now)
	if backupErr != nil {
		return "", errors.ResourceError(
			errors.CodeOutputFailed,
			dir,
			fmt.Errorf("both primary and backup export failed: primary=%v, backup=%v", err, backupErr),
		)
	}

	fmt.Fprintf(os.Stderr, "Warning: could not write to %s, export saved to %s\n", dir, path)
	return path, nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(report *Report, writer io.Writer) error {
	if report == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_generation", fmt.Errorf("report is nil"))
	}
	if writer == nil {
		return errors.ResourceError(errors.CodeOutputFailed, "writer", fmt.Errorf("writer is nil"))
	}
	return nil
}

// generateWithFormatFallback renders the console format after the requested one failed
func (srg *SafeReportGenerator) generateWithFormatFallback(report *Report, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(report, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return nil
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	return errors.WrapIfNeeded(
		err,
		errors.CategoryResource,
		errors.CodeOutputFailed,
		"report generation failed",
	).WithSuggestion("check the output destination and report format settings")
}

// isFileError checks if the error is file-related
func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		os.IsExist(err) ||
		isSpaceError(err)
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}
