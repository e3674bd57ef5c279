package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeTokenMalformed, "token is not a JWT")

	if err.Code != ErrCodeTokenMalformed {
		t.Errorf("expected code %s, got %s", ErrCodeTokenMalformed, err.Code)
	}

	if err.Message != "token is not a JWT" {
		t.Errorf("expected message 'token is not a JWT', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read keystore", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProductTrackError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeClaimsIncomplete, "missing claim rol"),
			wantCode: "SESSION-005",
			wantMsg:  "missing claim rol",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}
			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestion("first").
		WithSuggestions("second", "third")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("expected suggestions header in %q", errStr)
	}
	if !strings.Contains(errStr, "• third") {
		t.Errorf("expected last suggestion in %q", errStr)
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeTokenExpired, "expired")
	outer := Wrap(ErrCodeAPIUnauthorized, "login required", inner)
	plain := fmt.Errorf("context: %w", outer)

	if !HasCode(plain, ErrCodeAPIUnauthorized) {
		t.Error("expected outer code to be found through fmt wrapping")
	}
	if !HasCode(plain, ErrCodeTokenExpired) {
		t.Error("expected nested code to be found")
	}
	if HasCode(plain, ErrCodeFileNotFound) {
		t.Error("did not expect unrelated code")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeFileNotFound) {
		t.Error("plain errors carry no code")
	}
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("wrapped: %w", NewNotAuthenticatedError()))
	if !ok || code != ErrCodeNotAuthenticated {
		t.Errorf("expected %s, got %s (ok=%v)", ErrCodeNotAuthenticated, code, ok)
	}

	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Error("expected no code for plain error")
	}
}

func TestCommonConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *ProductTrackError
		code ErrorCode
	}{
		{"not authenticated", NewNotAuthenticatedError(), ErrCodeNotAuthenticated},
		{"not authorized", NewNotAuthorizedError("team management", "/app/individual/home"), ErrCodeNotAuthorized},
		{"token expired", NewTokenExpiredError(fmt.Errorf("exp")), ErrCodeTokenExpired},
		{"api unreachable", NewAPIUnreachableError("http://localhost:8080", fmt.Errorf("refused")), ErrCodeAPIUnreachable},
		{"file not found", NewFileNotFoundError("/tmp/x"), ErrCodeFileNotFound},
		{"unmarshal", NewFileUnmarshalError("/tmp/x", "YAML", fmt.Errorf("bad")), ErrCodeFileUnmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Errorf("expected suggestions for %s", tt.name)
			}
		})
	}
}

func TestNotAuthorizedWithoutRedirect(t *testing.T) {
	err := NewNotAuthorizedError("audit", "")
	if len(err.Suggestions) != 0 {
		t.Errorf("expected no suggestions without redirect, got %v", err.Suggestions)
	}
}
