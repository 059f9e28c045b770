package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
//	VAL001 - Invalid input: a row or argument failed validation
//	VAL002 - Duplicate phone: the number already exists in the roster
//	FILE001 - Import file too large
//	NF001  - Not found: the referenced number or person does not exist
//	PER001 - Person in use: numbers are still assigned to this person
//	OP001  - Busy: another operation is still running
//	OP002  - Cancelled or timed out while waiting
//	STO001 - Save failed: changes were rolled back
//	STO002 - Storage unreachable
//	STO003 - Storage full or read-only
//	ERR000 - Unknown error
//
// Classification first checks sentinel errors with errors.Is/As, then falls
// back to case-insensitive pattern matching on the error text for errors that
// come straight from a storage driver.

import (
	"context"
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

var (
	msgValidation = UserMessage{
		Message: "Some input was invalid",
		Action:  "Check the rejected rows or arguments and try again",
		Code:    "VAL001",
	}
	msgDuplicatePhone = UserMessage{
		Message: "This phone number already exists",
		Action:  "Edit the existing record instead of adding a new one",
		Code:    "VAL002",
	}
	msgTooLarge = UserMessage{
		Message: "The import file is too large",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}
	msgNotFound = UserMessage{
		Message: "The record does not exist",
		Action:  "Refresh the list; it may have been deleted",
		Code:    "NF001",
	}
	msgPersonInUse = UserMessage{
		Message: "Numbers are still assigned to this person",
		Action:  "Reassign the numbers first or delete with release",
		Code:    "PER001",
	}
	msgBusy = UserMessage{
		Message: "Another operation is still running",
		Action:  "Wait for it to finish and try again",
		Code:    "OP001",
	}
	msgCancelled = UserMessage{
		Message: "The operation was cancelled before it started",
		Action:  "Please try again",
		Code:    "OP002",
	}
	msgPersistence = UserMessage{
		Message: "Changes could not be saved and were rolled back",
		Action:  "Check storage availability and try again",
		Code:    "STO001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps storage driver error text (case-insensitive) to user
// messages. The first matching pattern wins.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach storage",
			Action:  "Check that the storage backend is running",
			Code:    "STO002",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach storage",
			Action:  "Check the storage address in the configuration",
			Code:    "STO002",
		},
	},
	{
		pattern: "no space left",
		msg: UserMessage{
			Message: "Storage is full",
			Action:  "Free some disk space and try again",
			Code:    "STO003",
		},
	},
	{
		pattern: "read-only",
		msg: UserMessage{
			Message: "Storage is read-only",
			Action:  "Check permissions of the data directory",
			Code:    "STO003",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Storage is read-only",
			Action:  "Check permissions of the data directory",
			Code:    "STO003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := svc.DeleteNumber(ctx, 42)
//	msg := MapError(err)
//	// msg.Code == "NF001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve ValidationError
	switch {
	case errors.Is(err, ErrBusy):
		return msgBusy
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrImportTooLarge):
		return msgTooLarge
	case errors.Is(err, ErrDuplicatePhone):
		return msgDuplicatePhone
	case errors.Is(err, ErrPersonInUse):
		return msgPersonInUse
	case errors.As(err, &ve):
		return msgValidation
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	// Driver patterns above win over the generic persistence message.
	if errors.Is(err, ErrPersistence) {
		return msgPersistence
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return msgCancelled
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
