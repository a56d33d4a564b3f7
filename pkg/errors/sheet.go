package errors

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SheetContext describes where in a workbook an error happened
type SheetContext struct {
	File      string   `json:"file"`
	Sheet     string   `json:"sheet"`
	Available []string `json:"available,omitempty"`
}

// SheetError extends DashboardError with workbook location details
type SheetError struct {
	*DashboardError
	Sheet *SheetContext `json:"sheet"`
}

// Error implements the error interface with location formatting
func (e *SheetError) Error() string {
	parts := []string{e.DashboardError.Error()}
	if e.Sheet != nil && e.Sheet.File != "" {
		parts = append(parts, fmt.Sprintf("at %s", filepath.Base(e.Sheet.File)))
	}
	return strings.Join(parts, " ")
}

// Unwrap exposes the DashboardError so errors.As finds it
func (e *SheetError) Unwrap() error {
	return e.DashboardError
}

// GetDetailedError returns a multi-line error description
func (e *SheetError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Sheet != nil {
		lines = append(lines, fmt.Sprintf("  → File: %s", e.Sheet.File))
		if e.Sheet.Sheet != "" {
			lines = append(lines, fmt.Sprintf("  → Sheet: %s", e.Sheet.Sheet))
		}
		if len(e.Sheet.Available) > 0 {
			lines = append(lines, fmt.Sprintf("  → Available sheets: %s", strings.Join(e.Sheet.Available, ", ")))
		}
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	return strings.Join(lines, "\n")
}

// MissingSheetError creates an error for a required sheet absent from a workbook.
func MissingSheetError(file, sheet string, available []string) *SheetError {
	base := StructuralError(CodeSheetNotFound, file, sheet, nil)
	if len(available) > 0 {
		base.WithContext("available", available)
	}
	return &SheetError{
		DashboardError: base,
		Sheet: &SheetContext{
			File:      file,
			Sheet:     sheet,
			Available: available,
		},
	}
}

// UnreadableWorkbookError creates an error for a workbook the readers could not open.
func UnreadableWorkbookError(file string, cause error) *SheetError {
	return &SheetError{
		DashboardError: StructuralError(CodeWorkbookUnreadable, file, "", cause),
		Sheet:          &SheetContext{File: file},
	}
}

// FindSheet returns the workbook sheet matching want, comparing case-insensitively
// after trimming. The exact name wins when present.
func FindSheet(want string, available []string) (string, bool) {
	for _, name := range available {
		if name == want {
			return name, true
		}
	}
	norm := strings.ToLower(strings.TrimSpace(want))
	for _, name := range available {
		if strings.ToLower(strings.TrimSpace(name)) == norm {
			return name, true
		}
	}
	return "", false
}

// FormatErrorsForUser formats multiple errors in a user-friendly way
func FormatErrorsForUser(errs []*SheetError) string {
	if len(errs) == 0 {
		return "No workbook errors"
	}

	if len(errs) == 1 {
		return errs[0].GetDetailedError()
	}

	lines := []string{fmt.Sprintf("Found %d workbook errors:", len(errs)), ""}
	for _, err := range errs {
		lines = append(lines, err.GetDetailedError(), "")
	}

	return strings.Join(lines, "\n")
}
