// Package workbook opens .xlsx and .xls spreadsheets and exposes their sheets
// as header-keyed rows.
package workbook

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

// Supported spreadsheet extensions
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
)

// Workbook is an opened spreadsheet file
type Workbook interface {
	// ID identifies this opened file in logs
	ID() string
	Path() string
	SheetNames() []string
	// Rows returns the sheet's cells as formatted strings, header row included
	Rows(sheet string) ([][]string, error)
	Close() error
}

// ValidateFileType rejects anything that is not a .xlsx or .xls file
func ValidateFileType(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtXLSX, ExtXLS:
		return nil
	default:
		return errors.InputError(errors.CodeInvalidFileType, path, nil)
	}
}

// Open validates path and opens it with the reader matching its extension
func Open(path string) (Workbook, error) {
	log := logger.GetGlobalLogger().WithComponent("workbook").WithField("file_path", path)

	if strings.TrimSpace(path) == "" {
		return nil, errors.InputError(errors.CodeMissingFile, path, nil)
	}
	if err := ValidateFileType(path); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		log.WithError(err).Error("Failed to access workbook")
		if os.IsNotExist(err) {
			return nil, errors.InputError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.InputError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.UnreadableWorkbookError(path, err)
	}

	id := uuid.New().String()
	var (
		wb  Workbook
		err error
	)
	if strings.ToLower(filepath.Ext(path)) == ExtXLS {
		wb, err = openXLS(id, path)
	} else {
		wb, err = openXLSX(id, path)
	}
	if err != nil {
		log.WithError(err).Error("Failed to open workbook")
		return nil, errors.UnreadableWorkbookError(path, err)
	}

	log.WithFields(logger.Fields{
		"workbook_id": id,
		"sheets":      wb.SheetNames(),
	}).Debug("Opened workbook")
	return wb, nil
}

// ResolveSheet finds the workbook's sheet matching name, failing with a
// structural error that lists the sheets that do exist.
func ResolveSheet(wb Workbook, name string) (string, error) {
	available := wb.SheetNames()
	if sheet, ok := errors.FindSheet(name, available); ok {
		return sheet, nil
	}
	return "", errors.MissingSheetError(wb.Path(), name, available)
}
