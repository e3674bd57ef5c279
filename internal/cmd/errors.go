package cmd

import (
	"fmt"

	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/tui"
)

// usageError reports bad arguments; it exits with the usage code.
func usageError(format string, args ...any) *pterrors.ProductTrackError {
	return pterrors.New(pterrors.ErrCodeInvalidInput, fmt.Sprintf(format, args...))
}

// missingFlag is returned when a value is needed and prompting is not
// possible.
func missingFlag(name string) *pterrors.ProductTrackError {
	err := usageError("--%s is required", name)
	if !tui.IsInteractive() {
		err = err.WithSuggestion("stdin is not a terminal, so values cannot be asked for interactively")
	}
	return err
}
