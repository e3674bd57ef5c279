package ux

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a recovery suggestion to errors that carry none.
// Coded errors already have their own and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var ptErr *pterrors.ProductTrackError
	if errors.As(err, &ptErr) && len(ptErr.Suggestions) > 0 {
		return err
	}

	switch api.StatusOf(err) {
	case http.StatusForbidden:
		return NewErrorWithSuggestion(err,
			"Your account may not perform this action; run 'producttrack nav' to see what is available")
	case http.StatusNotFound:
		return NewErrorWithSuggestion(err,
			"Check the id; list records first with the matching list command")
	case http.StatusConflict:
		return NewErrorWithSuggestion(err,
			"A record with these details already exists")
	}
	if status := api.StatusOf(err); status >= 500 {
		return NewErrorWithSuggestion(err,
			"The backend failed; try again in a moment")
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and the api.url setting")
	}

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on the ProductTrack home directory (default ~/.producttrack)")
	}

	if strings.Contains(errMsg, "no such file or directory") {
		return NewErrorWithSuggestion(err,
			"Check that the file path is correct")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

var errorLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

// RenderError formats err for the terminal.
func RenderError(err error, noColor bool) string {
	if noColor {
		return "Error: " + err.Error()
	}
	return errorLabel.Render("Error:") + " " + err.Error()
}
