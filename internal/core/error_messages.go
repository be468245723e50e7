package core

// error_messages.go maps Go errors to user-facing messages with support codes.
//
// Data problems never reach this file: they are report entries. What is
// mapped here are failures of a run or of a request, grouped by family:
//
//	CFG001-CFG099  Descriptor problems (unsupported type, unknown format, ...)
//	SRC001-SRC099  Data sources that cannot be used at all
//	VAL001-VAL099  Malformed validation requests
//	RPT001-RPT099  Report lookup
//	RATE001-RATE099 Throttling and run limits
//	SYS001-SYS099  Cancellation and timeouts
//	ERR000         Fallback; check the logs for the original error
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring; the first match wins, so more
// specific patterns come first.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/source"
	"github.com/JonMunkholm/tablecheck/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

// Request errors raised by transports before a run starts.
var (
	ErrEmptyDescriptor   = errors.New("empty descriptor")
	ErrUnsupportedMedia  = errors.New("unsupported descriptor media type")
	ErrPathOutsideRoot   = schema.ErrOutsideRoot
	ErrRequestBodyTooBig = errors.New("request body too large")
)

type sentinelMessage struct {
	err error
	msg UserMessage
}

// Ordered: schema sentinels are wrapped together with others, so the more
// specific ones come first.
var sentinelMessages = []sentinelMessage{
	{schema.ErrUnsupportedType, UserMessage{
		Message: "The descriptor uses an unsupported field type",
		Action:  "Use string, number, integer, boolean, date, datetime, year or geopoint",
		Code:    "CFG001",
	}},
	{schema.ErrUnknownFormat, UserMessage{
		Message: "The descriptor uses an unknown field format",
		Action:  "Check the format against the field type",
		Code:    "CFG002",
	}},
	{schema.ErrDecode, UserMessage{
		Message: "The descriptor could not be decoded",
		Action:  "Check that the descriptor is valid JSON or YAML",
		Code:    "CFG003",
	}},
	{schema.ErrInvalidDescriptor, UserMessage{
		Message: "The descriptor is invalid",
		Action:  "Fix the descriptor problems listed in the error details",
		Code:    "CFG004",
	}},
	{os.ErrNotExist, UserMessage{
		Message: "A descriptor or schema file was not found",
		Action:  "Check the path and try again",
		Code:    "CFG005",
	}},
	{source.ErrUnknownSource, UserMessage{
		Message: "The resource uses an unknown source kind",
		Action:  "Use a CSV path or a postgres, sqlite or mysql source",
		Code:    "SRC001",
	}},
	{ErrEmptyDescriptor, UserMessage{
		Message: "No descriptor was provided",
		Action:  "Send the package descriptor as the request body",
		Code:    "VAL001",
	}},
	{ErrUnsupportedMedia, UserMessage{
		Message: "The descriptor media type is not supported",
		Action:  "Send application/json or application/yaml",
		Code:    "VAL002",
	}},
	{ErrPathOutsideRoot, UserMessage{
		Message: "A resource path points outside the data directory",
		Action:  "Use paths relative to the data directory",
		Code:    "VAL003",
	}},
	{ErrRequestBodyTooBig, UserMessage{
		Message: "The descriptor is too large",
		Action:  "Reference schemas by path instead of inlining them",
		Code:    "VAL004",
	}},
	{store.ErrNotFound, UserMessage{
		Message: "Report not found",
		Action:  "The report may have expired. Run the validation again",
		Code:    "RPT001",
	}},
	{ErrTooManyValidations, UserMessage{
		Message: "System is busy running other validations",
		Action:  "Please wait a moment and try again",
		Code:    "RATE002",
	}},
	{context.Canceled, UserMessage{
		Message: "Validation was cancelled",
		Action:  "Please try again",
		Code:    "SYS001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Validation timed out",
		Action:  "Validate fewer resources at once or raise the timeout",
		Code:    "SYS002",
	}},
}

// errorPattern maps a lower-case substring to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to a data source",
			Action:  "Check that the database is reachable and try again",
			Code:    "SRC002",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "A data source rejected the credentials",
			Action:  "Check the DSN user and password",
			Code:    "SRC003",
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
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "SYS002",
		},
	},
}

// defaultMessage is returned when nothing matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsConfigError reports whether err is a descriptor problem.
func IsConfigError(err error) bool {
	return strings.HasPrefix(MapError(err).Code, "CFG")
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original error for logging
	User      UserMessage // Message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
