package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err for the user and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if dashErr, ok := errors.AsDashboardError(err); ok {
		return h.handleDashboardError(dashErr)
	}

	return h.handleGenericError(err)
}

// handleDashboardError prints the message, context and suggestion of err
func (h *CLIErrorHandler) handleDashboardError(err *errors.DashboardError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	// structural causes are always shown
	if err.Cause != nil && (h.verbose || err.Category == errors.CategoryStructural) {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors that are not DashboardErrors
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 5
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryInput:
		return `Input error help:
• Select both workbooks (--rejections and --corrections)
• Only .xlsx and .xls files are accepted
• Verify the file path is correct and readable`

	case errors.CategoryStructural:
		return `Workbook error help:
• Check the sheet names: "Lista Erros Sefaz" and "Base Consolidado" in the rejections workbook
• "Listagem de Eventos" in the correction events workbook
• Sheet names can be changed in the config file under sheets.*
• Re-export the workbook if it cannot be opened`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'dashboard analyze --help' to see all available options`

	case errors.CategoryResource:
		return `Output error help:
• Check that the output directory exists and is writable
• Close the export file if it is open in Excel
• Check available disk space`

	default:
		return `For more help:
• Use 'dashboard --help' for general help
• Use 'dashboard analyze --help' for command-specific help
• Run again with --verbose for the full error chain`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return stderrors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return stderrors.Is(err, os.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if stderrors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}

// FormatFileError formats file-related errors with helpful information
func FormatFileError(filePath string, err error) string {
	baseName := filepath.Base(filePath)
	dir := filepath.Dir(filePath)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("Error with file '%s':\n", baseName))
	message.WriteString(fmt.Sprintf("  Path: %s\n", filePath))
	message.WriteString(fmt.Sprintf("  Error: %v\n", err))

	if stderrors.Is(err, os.ErrNotExist) {
		message.WriteString("  Suggestion: Check if the file exists in the specified location\n")

		if similar := similarWorkbooks(dir, baseName); len(similar) > 0 {
			message.WriteString("  Similar files found:\n")
			for _, name := range similar {
				message.WriteString(fmt.Sprintf("    - %s\n", name))
			}
		}
	} else if stderrors.Is(err, os.ErrPermission) {
		message.WriteString("  Suggestion: Check file permissions - you may need read access\n")
	}

	return message.String()
}

// similarWorkbooks lists up to three spreadsheets in dir sharing a prefix with name
func similarWorkbooks(dir, name string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	prefix := strings.ToLower(name[:min(len(name), 3)])
	var similar []string
	for _, entry := range entries {
		lower := strings.ToLower(entry.Name())
		ext := filepath.Ext(lower)
		if entry.IsDir() || (ext != ".xlsx" && ext != ".xls") {
			continue
		}
		if strings.Contains(lower, prefix) {
			similar = append(similar, entry.Name())
		}
		if len(similar) == 3 {
			break
		}
	}
	return similar
}
