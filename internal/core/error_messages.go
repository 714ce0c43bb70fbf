package core

// error_messages.go maps technical errors to messages a user can act on.
// Every message carries a code the user can quote when asking for help.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload exceeds the configured size limit
//	          Sentinel: ErrFileTooLarge. Patterns: "request body too large"
//	FILE002 - Unreadable file: the file could not be decoded
//	          Sentinel: ingest.ErrUnreadable
//	FILE003 - Unsupported type: the extension has no decoder
//	          Sentinel: ingest.ErrUnsupportedFormat
//	FILE004 - No file: the request carried no file
//	          Sentinel: ErrNoFiles
//	FILE005 - Too many files: the batch exceeds the configured file count
//	          Sentinel: ErrTooManyFiles
//	FILE006 - Sheet not found: the requested sheet is not in the workbook
//	          Sentinel: ErrSheetNotFound
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: no cleaning slot freed up in time
//	         Sentinel: ErrTooManyJobs
//	UPL004 - Request cancelled. Sentinel: context.Canceled
//	UPL005 - Request timeout. Sentinel: context.DeadlineExceeded
//
// # Access Errors
//
//	RATE001 - Rate limited. Patterns: "rate limit"
//	AUTH001 - Missing API key. Patterns: "missing api key"
//	AUTH002 - Invalid API key. Patterns: "invalid api key"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. The technical error is in the server log.
//
// Sentinels are checked with errors.Is first, in table order, then patterns
// are matched case-insensitively against the error text.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tidysheet/internal/ingest"
)

var (
	// ErrNoFiles is returned when a batch contains no uploaded file.
	ErrNoFiles = errors.New("no file provided")

	// ErrTooManyFiles is returned when a batch exceeds the file limit.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrFileTooLarge is returned when the request body exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSheetNotFound is returned when a requested sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
)

type sentinelMessage struct {
	target error
	msg    UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		target: ErrFileTooLarge,
		msg:    msgFileTooLarge,
	},
	{
		target: ingest.ErrUnreadable,
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is not corrupt and re-export it from its source",
			Code:    "FILE002",
		},
	},
	{
		target: ingest.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv, .xlsx, .xlsm or .xls file",
			Code:    "FILE003",
		},
	},
	{
		target: ErrNoFiles,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select at least one file to clean",
			Code:    "FILE004",
		},
	},
	{
		target: ErrTooManyFiles,
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at a time",
			Code:    "FILE005",
		},
	},
	{
		target: ErrSheetNotFound,
		msg: UserMessage{
			Message: "The requested sheet was not found in the workbook",
			Action:  "Check the sheet name, or leave it empty for the first sheet",
			Code:    "FILE006",
		},
	},
	{
		target: ErrTooManyJobs,
		msg: UserMessage{
			Message: "System is busy cleaning other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg:    msgTimeout,
	},
}

// errorPatterns covers errors that arrive without a sentinel in their chain.
// The first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg:     msgFileTooLarge,
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "API key required",
			Action:  "Send the key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "Invalid API key",
			Action:  "Check the key and try again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg:     msgTimeout,
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message, falling
// back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
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

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
