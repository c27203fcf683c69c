// error_messages.go maps errors to user-facing messages with support codes.
//
// # Error Codes Reference
//
// When users encounter errors, they can quote the code to support staff
// for faster diagnosis.
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Not HTML: The file could not be read as an HTML export
//	           Action: Export the spreadsheet as HTML and upload that file
//	           Matches: *extract.ParseError
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Export a smaller range or split the workbook
//	          Matches: ErrFileTooLarge, "file too large", "request body too large"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select an HTML export to upload
//	          Matches: ErrNoFile, "no file provided"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	         Matches: ErrTooManyUploads
//
//	UPL003 - Not found: Extraction not found
//	         Action: The record may have been pruned. Upload the file again
//	         Matches: ErrExtractionNotFound
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Matches: context.Canceled
//
//	UPL005 - Request timeout: Extraction took too long
//	         Action: Try a smaller export or try again later
//	         Matches: ErrExtractionTimeout, context.DeadlineExceeded
//
// # Rate Limiting and Auth (RATE001, AUTH001-AUTH002)
//
//	RATE001 - Rate limited: Too many requests
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Typed errors are checked first with errors.Is and errors.As, so wrapped
// errors map correctly. Anything else falls through to case-insensitive
// substring patterns, first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetsections/internal/extract"
)

// Auth and rate limit errors raised by the web layer.
var (
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrMissingAPIKey = errors.New("missing api key")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgParse = UserMessage{
		Message: "The file could not be read as an HTML export",
		Action:  "Export the spreadsheet as HTML and upload that file",
		Code:    "PARSE001",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Export a smaller range or split the workbook",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select an HTML export to upload",
		Code:    "FILE004",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgNotFound = UserMessage{
		Message: "Extraction not found",
		Action:  "The record may have been pruned. Upload the file again",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Extraction took too long",
		Action:  "Try a smaller export or try again later",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
	msgMissingKey = UserMessage{
		Message: "API key required",
		Action:  "Send your key in the X-API-Key header",
		Code:    "AUTH001",
	}
	msgInvalidKey = UserMessage{
		Message: "Invalid API key",
		Action:  "Check that the key is correct and has not been revoked",
		Code:    "AUTH002",
	}
)

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// typedErrors is checked in order with errors.Is. ErrFileTooLarge comes
// first because a ParseError can wrap it.
var typedErrors = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, msgTooLarge},
	{ErrNoFile, msgNoFile},
	{ErrTooManyUploads, msgBusy},
	{ErrExtractionNotFound, msgNotFound},
	{ErrExtractionTimeout, msgTimeout},
	{ErrRateLimited, msgRateLimited},
	{ErrMissingAPIKey, msgMissingKey},
	{ErrInvalidAPIKey, msgInvalidKey},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive as plain strings, e.g. from
// net/http's multipart reader.
var errorPatterns = []errorPattern{
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "no such file", msg: msgNoFile},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "parse html", msg: msgParse},
	{pattern: "rate limit", msg: msgRateLimited},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "context canceled", msg: msgCancelled},
}

// MapError converts a technical error to a user-friendly message.
// If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("extract: %w", ErrFileTooLarge))
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if errors.Is(err, te.target) {
			return te.msg
		}
	}

	var pe *extract.ParseError
	if errors.As(err, &pe) {
		return msgParse
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
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

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
