package ux

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
)

func TestNewErrorWithSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
		wantNil    bool
	}{
		{
			name:       "nil error returns nil",
			err:        nil,
			suggestion: "some suggestion",
			wantNil:    true,
		},
		{
			name:       "error with suggestion",
			err:        errors.New("something failed"),
			suggestion: "try this fix",
		},
		{
			name:       "error without suggestion",
			err:        errors.New("something failed"),
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewErrorWithSuggestion(tt.err, tt.suggestion)
			if tt.wantNil {
				if result != nil {
					t.Errorf("NewErrorWithSuggestion() = %v, want nil", result)
				}
				return
			}

			if result == nil {
				t.Fatal("NewErrorWithSuggestion() returned nil, want error")
			}

			errMsg := result.Error()
			if !strings.Contains(errMsg, tt.err.Error()) {
				t.Errorf("Error message %q does not contain original error %q", errMsg, tt.err.Error())
			}
			if tt.suggestion != "" && !strings.Contains(errMsg, tt.suggestion) {
				t.Errorf("Error message %q does not contain suggestion %q", errMsg, tt.suggestion)
			}
			if !errors.Is(result, tt.err) {
				t.Error("wrapped error should unwrap to the original")
			}
		})
	}
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantSuggestion string
	}{
		{"nil", nil, ""},
		{"forbidden", &api.APIError{StatusCode: http.StatusForbidden, Message: "no"}, "producttrack nav"},
		{"not found", &api.APIError{StatusCode: http.StatusNotFound, Message: "missing"}, "Check the id"},
		{"server error", &api.APIError{StatusCode: http.StatusBadGateway, Message: "down"}, "try again"},
		{"connection refused", errors.New("dial tcp: connection refused"), "api.url"},
		{"permission denied", errors.New("open state.json: permission denied"), "permissions"},
		{"unknown stays plain", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("EnhanceError(nil) = %v", got)
				}
				return
			}

			var ws *ErrorWithSuggestion
			hasSuggestion := errors.As(got, &ws)
			if tt.wantSuggestion == "" {
				if hasSuggestion {
					t.Errorf("unexpected suggestion: %v", got)
				}
				return
			}
			if !hasSuggestion || !strings.Contains(ws.Suggestion, tt.wantSuggestion) {
				t.Errorf("EnhanceError() = %v, want suggestion containing %q", got, tt.wantSuggestion)
			}
		})
	}
}

func TestEnhanceErrorKeepsCodedSuggestions(t *testing.T) {
	err := pterrors.NewNotAuthenticatedError()
	if got := EnhanceError(err); got != error(err) {
		t.Errorf("coded error with suggestions should be returned unchanged, got %v", got)
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil, "ctx") != nil {
		t.Error("FormatError(nil) should be nil")
	}

	base := errors.New("boom")
	err := FormatError(base, "loading inventory")
	if !strings.HasPrefix(err.Error(), "loading inventory: boom") {
		t.Errorf("FormatError() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("FormatError() should wrap the original")
	}
}

func TestRenderError(t *testing.T) {
	got := RenderError(errors.New("boom"), true)
	if got != "Error: boom" {
		t.Errorf("RenderError() = %q", got)
	}
	if !strings.Contains(RenderError(errors.New("boom"), false), "boom") {
		t.Error("colored output should contain the message")
	}
}
