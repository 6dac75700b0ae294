package core

// # Error Codes Reference
//
// User-facing error messages carry a code that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Patterns: "invalid csv"
//
//	FILE003 - Read error: The file could not be read
//	          Patterns: "read file"
//
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Patterns: "empty file"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: Preview session not found
//	         Patterns: "session not found"
//
//	SES002 - No data: No file is loaded in this session
//	         Patterns: "no data loaded"
//
//	SES003 - Unknown filter: The filter field does not exist
//	         Patterns: "unknown filter field"
//
// # Report Errors (RPT001-RPT099)
//
//	RPT001 - Missing columns: The file lacks columns the report needs
//	         Patterns: "missing required columns"
//
//	RPT002 - Unknown schema: The report layout does not exist
//	         Patterns: "unknown report schema"
//
//	RPT003 - System busy: Too many reports in progress
//	         Patterns: "too many reports"
//
//	RPT004 - Report failed: The report could not be written
//	         Patterns: "write report"
//
//	RPT005 - Period too long: The dates span too many days for a daily layout
//	         Patterns: "report period too long"
//
// # Request Errors (UPL004-UPL005)
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred. Check the logs for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFile is returned when an upload carries no file part.
var ErrNoFile = errors.New("no file provided")

// ErrNoData is returned for operations that need a loaded table.
var ErrNoData = errors.New("no data loaded")

// ErrUnknownField is returned for a filter field other than Project,
// Client or User.
var ErrUnknownField = errors.New("unknown filter field")

// UserMessage is a user-friendly error with guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Export a shorter date range and upload again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Export a shorter date range and upload again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "read file",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Please upload the file again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// Session errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Preview session not found",
			Action:  "The session may have expired. Please upload the file again",
			Code:    "SES001",
		},
	},
	{
		pattern: "no data loaded",
		msg: UserMessage{
			Message: "No file is loaded",
			Action:  "Upload a CSV file first",
			Code:    "SES002",
		},
	},
	{
		pattern: "unknown filter field",
		msg: UserMessage{
			Message: "Unknown filter",
			Action:  "Filter by Project, Client or User",
			Code:    "SES003",
		},
	},

	// Report errors
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "The file lacks columns the report needs",
			Action:  "Include Project, Client, User, Start Date and Duration (h) in the export",
			Code:    "RPT001",
		},
	},
	{
		pattern: "unknown report schema",
		msg: UserMessage{
			Message: "Unknown report layout",
			Action:  "Choose one of the listed report layouts",
			Code:    "RPT002",
		},
	},
	{
		pattern: "too many reports",
		msg: UserMessage{
			Message: "Too many reports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RPT003",
		},
	},
	{
		pattern: "write report",
		msg: UserMessage{
			Message: "The report could not be written",
			Action:  "Please try again",
			Code:    "RPT004",
		},
	},
	{
		pattern: "report period too long",
		msg: UserMessage{
			Message: "The report period is too long",
			Action:  "Filter to fewer dates or use the Project-Focused layout",
			Code:    "RPT005",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or try again later",
			Code:    "UPL005",
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

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError returns "Message (Code: XXX). Action", or "" for nil.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
