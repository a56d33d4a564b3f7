package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryStructural    ErrorCategory = "structural"
	CategoryResource      ErrorCategory = "resource"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Input errors
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeFilePermission  ErrorCode = "file_permission"
	CodeInvalidFileType ErrorCode = "invalid_file_type"
	CodeMissingFile     ErrorCode = "missing_file"
	CodeInvalidFilter   ErrorCode = "invalid_filter"

	// Structural errors
	CodeSheetNotFound      ErrorCode = "sheet_not_found"
	CodeWorkbookUnreadable ErrorCode = "workbook_unreadable"
	CodeRowExtraction      ErrorCode = "row_extraction"

	// Resource errors
	CodeExportFailed   ErrorCode = "export_failed"
	CodeOutputFailed   ErrorCode = "output_failed"
	CodeLibraryMissing ErrorCode = "library_missing"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeMissingConfig  ErrorCode = "missing_config"
	CodeConfigConflict ErrorCode = "config_conflict"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeCancelled       ErrorCode = "cancelled"
)

// DashboardError is the base error type for all application errors
type DashboardError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *DashboardError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// UserMessage renders the error the way the dashboard banner shows it:
// the message, then the originating cause appended verbatim.
func (e *DashboardError) UserMessage() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s. %s", msg, e.Suggestion)
	}
	return msg
}

// GetExitCode returns an appropriate exit code for the error
func (e *DashboardError) GetExitCode() int {
	switch e.Category {
	case CategoryInput:
		return 2
	case CategoryStructural:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryResource:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *DashboardError) WithContext(key string, value interface{}) *DashboardError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *DashboardError) WithSuggestion(suggestion string) *DashboardError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DashboardError
func New(category ErrorCategory, code ErrorCode, message string) *DashboardError {
	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with DashboardError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// InputError creates an error for files the user supplied (or failed to supply).
// Input errors are reported before any processing starts.
func InputError(code ErrorCode, path string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeInvalidFileType:
		message = fmt.Sprintf("invalid file type: %s", path)
		suggestion = "use a .xlsx or .xls spreadsheet"
	case CodeMissingFile:
		message = fmt.Sprintf("missing required file: %s", path)
		suggestion = "provide both the rejections and the corrections workbooks"
	case CodeInvalidFilter:
		message = fmt.Sprintf("invalid filter value: %s", path)
		suggestion = "dates use YYYY-MM-DD and months use MM-YYYY"
	default:
		message = fmt.Sprintf("input error: %s", path)
		suggestion = "check the input and try again"
	}

	return newOrWrap(err, CategoryInput, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// StructuralError creates an error for workbooks whose structure prevents ingestion.
func StructuralError(code ErrorCode, file string, sheet string, err error) *DashboardError {
	var message string

	switch code {
	case CodeSheetNotFound:
		message = fmt.Sprintf("sheet '%s' not found in %s", sheet, file)
	case CodeWorkbookUnreadable:
		message = fmt.Sprintf("workbook could not be read: %s", file)
	case CodeRowExtraction:
		message = fmt.Sprintf("failed to extract rows from sheet '%s' in %s", sheet, file)
	default:
		message = fmt.Sprintf("structural error in %s", file)
	}

	return newOrWrap(err, CategoryStructural, code, message).
		WithSuggestion("check sheet names").
		WithContext("file", file).
		WithContext("sheet", sheet)
}

// ResourceError creates an error for degraded features such as export.
func ResourceError(code ErrorCode, resource string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeExportFailed:
		message = fmt.Sprintf("export failed: %s", resource)
		suggestion = "the analysis is still available on screen; retry the export"
	case CodeOutputFailed:
		message = fmt.Sprintf("could not write output: %s", resource)
		suggestion = "check that the output directory exists and is writable"
	case CodeLibraryMissing:
		message = fmt.Sprintf("required component unavailable: %s", resource)
		suggestion = "reinstall the tool or report the problem"
	default:
		message = fmt.Sprintf("resource error: %s", resource)
		suggestion = "try again"
	}

	return newOrWrap(err, CategoryResource, code, message).
		WithSuggestion(suggestion).
		WithContext("resource", resource)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeConfigConflict:
		message = fmt.Sprintf("configuration conflict with setting '%s': %v", setting, value)
		suggestion = "resolve the conflicting settings or use default values"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return newOrWrap(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	case CodeCancelled:
		message = fmt.Sprintf("%s was cancelled", operation)
		suggestion = "start the operation again"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	return newOrWrap(err, CategoryInternal, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*DashboardError     `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*DashboardError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if summary.Errors == nil {
		summary.Errors = []*DashboardError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsDashboardError extracts a DashboardError from an error chain
func AsDashboardError(err error) (*DashboardError, bool) {
	var dashboardErr *DashboardError
	if errors.As(err, &dashboardErr) {
		return dashboardErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries a DashboardError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	dashboardErr, ok := AsDashboardError(err)
	return ok && dashboardErr.Category == category
}

// WrapIfNeeded wraps an error if it's not already a DashboardError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	if dashboardErr, ok := AsDashboardError(err); ok {
		return dashboardErr
	}

	return Wrap(err, category, code, message)
}
