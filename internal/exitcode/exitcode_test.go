package exitcode

import (
	"errors"
	"fmt"
	"testing"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "session code maps to auth",
			err:      pterrors.New(pterrors.ErrCodeTokenMalformed, "bad token"),
			expected: AuthError,
		},
		{
			name:     "wrapped not-authenticated maps to auth",
			err:      fmt.Errorf("inventory: %w", pterrors.NewNotAuthenticatedError()),
			expected: AuthError,
		},
		{
			name:     "api unauthorized maps to auth",
			err:      pterrors.New(pterrors.ErrCodeAPIUnauthorized, "401"),
			expected: AuthError,
		},
		{
			name:     "api unreachable maps to network",
			err:      pterrors.NewAPIUnreachableError("http://x", errors.New("refused")),
			expected: NetworkError,
		},
		{
			name:     "config code maps to usage",
			err:      pterrors.New(pterrors.ErrCodeConfigInvalid, "bad format"),
			expected: UsageError,
		},
		{
			name:     "io code maps to general",
			err:      pterrors.New(pterrors.ErrCodeFileWriteFailed, "disk full"),
			expected: GeneralError,
		},
		{
			name:     "authentication message",
			err:      errors.New("authentication failed"),
			expected: AuthError,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			expected: NetworkError,
		},
		{
			name:     "timeout",
			err:      errors.New("request timeout"),
			expected: NetworkError,
		},
		{
			name:     "unknown command",
			err:      errors.New(`unknown command "foo" for "producttrack"`),
			expected: UsageError,
		},
		{
			name:     "required flag",
			err:      errors.New(`required flag(s) "email" not set`),
			expected: UsageError,
		},
		{
			name:     "anything else",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{AuthError, "Authentication error"},
		{NetworkError, "Network error"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		if got := GetExitCodeDescription(tt.code); got != tt.want {
			t.Errorf("GetExitCodeDescription(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
