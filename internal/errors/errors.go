package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeTokenMissing     ErrorCode = "SESSION-001"
	ErrCodeTokenMalformed   ErrorCode = "SESSION-002"
	ErrCodeTokenExpired     ErrorCode = "SESSION-003"
	ErrCodeTokenSignature   ErrorCode = "SESSION-004"
	ErrCodeClaimsIncomplete ErrorCode = "SESSION-005"
	ErrCodeNotAuthenticated ErrorCode = "SESSION-006"
	ErrCodeNotAuthorized    ErrorCode = "SESSION-007"
	ErrCodeSignInAgain      ErrorCode = "SESSION-008"

	// Backend API errors (API-001 to API-099)
	ErrCodeAPIUnauthorized ErrorCode = "API-001"
	ErrCodeAPIRequest      ErrorCode = "API-002"
	ErrCodeAPIResponse     ErrorCode = "API-003"
	ErrCodeAPIUnreachable  ErrorCode = "API-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigEnv     ErrorCode = "CONFIG-002"
	ErrCodeInvalidInput  ErrorCode = "CONFIG-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// ProductTrackError represents an error with a code and recovery suggestions
type ProductTrackError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *ProductTrackError) Error() string {
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
func (e *ProductTrackError) Unwrap() error {
	return e.Cause
}

// New creates a new ProductTrackError
func New(code ErrorCode, message string) *ProductTrackError {
	return &ProductTrackError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ProductTrackError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ProductTrackError {
	return &ProductTrackError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ProductTrackError) WithSuggestion(suggestion string) *ProductTrackError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ProductTrackError) WithSuggestions(suggestions ...string) *ProductTrackError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasCode reports whether err, or any error it wraps, is a ProductTrackError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ptErr *ProductTrackError
	if errors.As(err, &ptErr) {
		if ptErr.Code == code {
			return true
		}
		return ptErr.Cause != nil && HasCode(ptErr.Cause, code)
	}
	return false
}

// CodeOf returns the code of the outermost ProductTrackError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ptErr *ProductTrackError
	if errors.As(err, &ptErr) {
		return ptErr.Code, true
	}
	return "", false
}

// Common error constructors for frequently used errors

// NewNotAuthenticatedError is returned by commands that need a session when none is present
func NewNotAuthenticatedError() *ProductTrackError {
	return New(ErrCodeNotAuthenticated, "not logged in").
		WithSuggestion("Run 'producttrack auth login' to authenticate").
		WithSuggestion("Run 'producttrack auth status' to inspect the stored session")
}

// NewNotAuthorizedError is returned when a command is run by a session that may not use it
func NewNotAuthorizedError(what, redirect string) *ProductTrackError {
	err := New(ErrCodeNotAuthorized, fmt.Sprintf("%s is not available for this account", what))
	if redirect != "" {
		err = err.WithSuggestion(fmt.Sprintf("Your landing page is %s; run 'producttrack nav' to see what you can open", redirect))
	}
	return err
}

// NewSignInAgainError is returned when a change was saved but no fresh
// token could be obtained for it
func NewSignInAgainError(what string, cause error) *ProductTrackError {
	return Wrap(ErrCodeSignInAgain, fmt.Sprintf("%s was saved, but a new session could not be started", what), cause).
		WithSuggestion("Run 'producttrack auth login' with your new password")
}

// NewTokenExpiredError creates a token expiry error
func NewTokenExpiredError(cause error) *ProductTrackError {
	return Wrap(ErrCodeTokenExpired, "session token has expired", cause).
		WithSuggestion("Run 'producttrack auth login' to obtain a new token")
}

// NewAPIUnreachableError creates a backend connectivity error
func NewAPIUnreachableError(baseURL string, cause error) *ProductTrackError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("cannot reach backend at %s", baseURL), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify api_url with 'producttrack config view' or PRODUCTTRACK_API_URL")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *ProductTrackError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *ProductTrackError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
