package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Is and As re-export the standard library helpers so call sites do not
// need a second errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRequired  ErrorCode = "AUTH-001"
	ErrCodeAuthForbidden ErrorCode = "AUTH-002"
	ErrCodeAuthUnknown   ErrorCode = "AUTH-003"
	ErrCodeAuthNoSession ErrorCode = "AUTH-004"

	// Content errors (CONTENT-001 to CONTENT-099)
	ErrCodeLoadFailed         ErrorCode = "CONTENT-001"
	ErrCodeGenerateFailed     ErrorCode = "CONTENT-002"
	ErrCodeStatusChangeFailed ErrorCode = "CONTENT-003"
	ErrCodeContentIDMissing   ErrorCode = "CONTENT-004"
	ErrCodeActionUnknown      ErrorCode = "CONTENT-005"
	ErrCodeOperationInFlight  ErrorCode = "CONTENT-006"

	// Board errors (BOARD-001 to BOARD-099)
	ErrCodeBoardRefreshFailed ErrorCode = "BOARD-001"

	// Image errors (IMAGE-001 to IMAGE-099)
	ErrCodeImageGenerateFailed ErrorCode = "IMAGE-001"
	ErrCodeImageStyleUnknown   ErrorCode = "IMAGE-002"

	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileReadFailed  ErrorCode = "IO-001"
	ErrCodeFileWriteFailed ErrorCode = "IO-002"
)

// StudioError represents an enhanced error with code, suggestions, and a
// human-readable detail string extracted from remote responses.
type StudioError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *StudioError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *StudioError) Unwrap() error {
	return e.Cause
}

// New creates a new StudioError
func New(code ErrorCode, message string) *StudioError {
	return &StudioError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new StudioError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *StudioError {
	return &StudioError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *StudioError) WithSuggestion(suggestion string) *StudioError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *StudioError) WithSuggestions(suggestions ...string) *StudioError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Code extracts the ErrorCode from err if it is a StudioError.
// Returns an empty code otherwise.
func Code(err error) ErrorCode {
	var se *StudioError
	if As(err, &se) {
		return se.Code
	}
	return ""
}

// Common error constructors for frequently used errors

// NewAuthRequiredError indicates the backend answered 401: the caller has
// no valid session and signing in again is the remediation.
func NewAuthRequiredError() *StudioError {
	return New(ErrCodeAuthRequired, "not authenticated (401)").
		WithSuggestion("Run 'studio auth login' to sign in")
}

// NewAuthForbiddenError indicates the backend answered 403: the caller is
// authenticated but lacks permission, so signing in again does not help.
func NewAuthForbiddenError() *StudioError {
	return New(ErrCodeAuthForbidden, "access denied (403)").
		WithSuggestion("Ask an administrator to add you to a designers, writers or approvers group")
}

// NewAuthUnknownError covers identity failures other than 401/403.
func NewAuthUnknownError(cause error) *StudioError {
	return Wrap(ErrCodeAuthUnknown, "authentication check failed", cause).
		WithSuggestion("Check your session and network connection")
}

// NewLoadFailedError creates a content load failure
func NewLoadFailedError(contentID string, cause error) *StudioError {
	return Wrap(ErrCodeLoadFailed, fmt.Sprintf("failed to load content %s", contentID), cause).
		WithSuggestion("Retry the load; previously displayed data is preserved")
}

// NewGenerateFailedError creates a generation failure
func NewGenerateFailedError(action string, cause error) *StudioError {
	return Wrap(ErrCodeGenerateFailed, fmt.Sprintf("generation action %q failed", action), cause).
		WithSuggestion("Retry the same action; nothing was changed locally")
}

// NewStatusChangeFailedError creates a status transition failure
func NewStatusChangeFailedError(contentID string, cause error) *StudioError {
	return Wrap(ErrCodeStatusChangeFailed, fmt.Sprintf("status change failed for %s", contentID), cause).
		WithSuggestion("The displayed status was rolled back to the last confirmed value")
}

// NewContentIDMissingError rejects an operation that requires an active
// content record before any network call is made.
func NewContentIDMissingError() *StudioError {
	return New(ErrCodeContentIDMissing, "no content selected").
		WithSuggestion("Generate content first to obtain a content id")
}

// NewActionUnknownError rejects a generation action outside the fixed set.
func NewActionUnknownError(action string) *StudioError {
	return New(ErrCodeActionUnknown, fmt.Sprintf("unknown generation action: %s", action)).
		WithSuggestion("Use one of: summarize, expand, fix, variations")
}

// NewBoardRefreshFailedError reports bucket fetch failures without
// implying the whole board was discarded.
func NewBoardRefreshFailedError(cause error) *StudioError {
	return Wrap(ErrCodeBoardRefreshFailed, "board refresh failed", cause).
		WithSuggestion("Buckets that loaded are still shown; retry to fill the rest")
}

// NewImageGenerateFailedError creates an image generation failure
func NewImageGenerateFailedError(cause error) *StudioError {
	return Wrap(ErrCodeImageGenerateFailed, "image generation failed", cause)
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *StudioError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'studio config view' to inspect the current configuration").
		WithSuggestion("Run 'studio config path' to locate the configuration file")
}
