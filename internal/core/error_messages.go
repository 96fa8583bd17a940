package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. Users quote the code; support staff look it
// up here.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key               Patterns: "duplicate key"
//	DB002 - Unique constraint           Patterns: "unique constraint", "violates unique"
//	DB003 - Value out of range          SQLSTATE class 22
//	DB004 - Connection refused          Patterns: "connection refused"
//	DB005 - Connection reset            Patterns: "connection reset"
//	DB006 - Timeout                     Patterns: "timeout"
//	DB007 - Deadlock                    Patterns: "deadlock", "database is locked"
//	DB008 - Store rejected the row      Typed: PersistenceError without a known cause
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large", "request body too large"
//	FILE002 - Unreadable spreadsheet    Typed: FormatError
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE006 - Wrong file type           Typed: UnsupportedFileTypeError
//
// # Query Errors (QRY001-QRY099)
//
//	QRY001 - No usable search criteria  Typed: InvalidCriteriaError
//	QRY002 - Nothing matched            Typed: EmptyResultError
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export file failure        Typed: ExportIOError
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy                Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled          Patterns: "context canceled"
//	UPL005 - Request timeout            Patterns: "context deadline exceeded"
//
//	RATE001 - Rate limited              Patterns: "rate limit"
//	ERR000  - Unknown error             Fallback
//
// Typed errors are matched first with errors.As, then SQLSTATE codes carried
// by a StateError. Everything else is matched
// case-insensitively with strings.Contains; the first matching pattern wins,
// so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgFormat = UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Upload a valid .xlsx workbook with data on the first sheet",
		Code:    "FILE002",
	}
	msgFileType = UserMessage{
		Message: "Only Excel files are allowed",
		Action:  "Save the file as .xlsx and upload it again",
		Code:    "FILE006",
	}
	msgCriteria = UserMessage{
		Message: "At least one search parameter is required",
		Action:  "Enter an organization name, website, employee range, contact name, contact title or LinkedIn URL",
		Code:    "QRY001",
	}
	msgEmpty = UserMessage{
		Message: "No data found for the specified search criteria",
		Action:  "Broaden the search and try again",
		Code:    "QRY002",
	}
	msgExportIO = UserMessage{
		Message: "Error exporting file",
		Action:  "Please try again",
		Code:    "EXP001",
	}
	msgPersistence = UserMessage{
		Message: "Error processing the file",
		Action:  "Check the reported row and upload the remaining rows again",
		Code:    "DB008",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove the duplicate rows and upload again",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your spreadsheet",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller workbooks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller workbooks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file uploaded",
			Action:  "Please select an Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are resolved first; a PersistenceError is resolved from its
// cause when the cause matches a known pattern.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		fe *FormatError
		ue *UnsupportedFileTypeError
		ie *InvalidCriteriaError
		ee *EmptyResultError
		xe *ExportIOError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ue):
		return msgFileType
	case errors.As(err, &fe):
		return msgFormat
	case errors.As(err, &ie):
		return msgCriteria
	case errors.As(err, &ee):
		return msgEmpty
	case errors.As(err, &xe):
		return msgExportIO
	case errors.As(err, &pe):
		if msg, ok := matchState(pe.Err); ok {
			return msg
		}
		if msg, ok := matchPattern(pe.Err); ok {
			return msg
		}
		return msgPersistence
	}

	if msg, ok := matchState(err); ok {
		return msg
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return defaultMessage
}

// StateError carries a driver's error state (a PostgreSQL SQLSTATE such as
// "23505", or a SQLite result code name such as "SQLITE_BUSY").
// Stores wrap driver errors in it so messages do not depend on driver text.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v (state %s)", e.Err, e.State)
}

func (e *StateError) Unwrap() error { return e.Err }

var stateMessages = map[string]string{
	"23505":         "duplicate key",
	"40P01":         "deadlock",
	"55P03":         "deadlock",
	"57014":         "timeout",
	"SQLITE_BUSY":   "database is locked",
	"SQLITE_LOCKED": "database is locked",
}

var msgValueRange = UserMessage{
	Message: "A value in the spreadsheet does not fit its column",
	Action:  "Check numeric and date columns in the reported row",
	Code:    "DB003",
}

func matchState(err error) (UserMessage, bool) {
	var se *StateError
	if !errors.As(err, &se) {
		return UserMessage{}, false
	}
	if p, ok := stateMessages[se.State]; ok {
		return patternMessage(p)
	}
	switch {
	case strings.HasPrefix(se.State, "08"):
		return patternMessage("connection refused")
	case strings.HasPrefix(se.State, "22"):
		return msgValueRange, true
	}
	return UserMessage{}, false
}

func patternMessage(pattern string) (UserMessage, bool) {
	for _, ep := range errorPatterns {
		if ep.pattern == pattern {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns the
// user message; Unwrap returns the technical error for logging.
type UserError struct {
	UserMessage
	Err error
}

// NewUserError wraps err with its mapped user message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{UserMessage: MapError(err), Err: err}
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }
