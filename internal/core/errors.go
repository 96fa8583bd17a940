package core

import (
	"errors"
	"fmt"
)

// FormatError reports a spreadsheet or grid that cannot be read,
// such as a missing bounding reference or an unreadable workbook.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid spreadsheet format: %s: %v", e.Reason, e.Err)
	}
	return "invalid spreadsheet format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedFileTypeError reports an upload whose extension is not .xlsx or .xls.
type UnsupportedFileTypeError struct {
	FileName string
	Ext      string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s: only excel files are allowed", e.Ext, e.FileName)
}

// InvalidCriteriaError reports a search payload that produces no predicate.
type InvalidCriteriaError struct {
	Reason string
}

func (e *InvalidCriteriaError) Error() string {
	return "invalid search criteria: " + e.Reason
}

// EmptyResultError reports a valid query that matched no rows where rows
// are required (export).
type EmptyResultError struct {
	Op string
}

func (e *EmptyResultError) Error() string {
	return e.Op + ": no data found"
}

// PersistenceError reports a store failure. For ingestion, Row is the 1-based
// sheet row that failed and Inserted counts the rows stored before it.
type PersistenceError struct {
	Op       string
	Row      int
	Inserted int
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d (after %d inserted): %v", e.Op, e.Row, e.Inserted, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExportIOError reports a failure creating, writing or removing the
// temporary export artifact.
type ExportIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExportIOError) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExportIOError) Unwrap() error { return e.Err }

// IsCallerError reports whether err was caused by the request itself rather
// than by the store or the filesystem.
func IsCallerError(err error) bool {
	var (
		fe *FormatError
		ue *UnsupportedFileTypeError
		ie *InvalidCriteriaError
	)
	return errors.As(err, &fe) || errors.As(err, &ue) || errors.As(err, &ie)
}
