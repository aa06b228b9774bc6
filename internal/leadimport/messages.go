package leadimport

// messages.go maps technical errors to user-facing messages with codes for
// support reference. Patterns are matched case-insensitively with
// strings.Contains and the first match wins, so specific patterns come
// before general ones.
//
//	DB001   duplicate key / unique violation
//	DB002   store connection refused
//	DB003   store connection reset
//	DB004   timeout
//	DB005   value too long / check constraint
//	IMP001  missing identity column
//	IMP002  no data rows
//	IMP003  empty column mapping
//	IMP004  unknown lead field
//	IMP005  mapped column missing from the file
//	FILE001 file too large
//	FILE002 no file provided
//	FILE003 encoding error
//	RUN001  too many imports
//	RUN002  import run not found
//	RUN003  request cancelled or timed out
//	RATE001 rate limit
//	ERR000  fallback

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A lead with this key already exists", "Review the file for duplicate leads", "DB001"}},
	{"violates unique", UserMessage{"A lead with this key already exists", "Review the file for duplicate leads", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to the lead store", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Lead store connection was interrupted", "Please try again", "DB003"}},
	{"context deadline exceeded", UserMessage{"Import timed out", "Try a smaller file or try again later", "RUN003"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "RUN003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB004"}},
	{"value too long", UserMessage{"A value is too long for its field", "Shorten the value in the file", "DB005"}},
	{"check constraint", UserMessage{"A value is not allowed for its field", "Check the column mapping", "DB005"}},

	{"missing identity column", UserMessage{"The file has no lead identifier column", "Export with uniqueLeadId or profileUrl included", "IMP001"}},
	{"at least one data line", UserMessage{"The file has no data rows", "Upload a file with a header and at least one lead", "IMP002"}},
	{"column mapping is empty", UserMessage{"No columns are mapped", "Map at least one column before importing", "IMP003"}},
	{"unknown lead field", UserMessage{"A column is mapped to an unknown field", "Pick a field from the list", "IMP004"}},
	{"column not found", UserMessage{"A mapped column is not in the file", "Check the column names in the mapping", "IMP005"}},

	{"file too large", UserMessage{"File exceeds the maximum size", "Split the file into smaller chunks", "FILE001"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE002"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save the file as UTF-8", "FILE003"}},

	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "RUN001"}},
	{"import run not found", UserMessage{"Import run not found", "The run may have expired. Start a new import", "RUN002"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unmatched errors map to ERR000.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
