// Package api is the ProductTrack backend REST client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/version"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrUnauthorized is returned for any 401 response. Callers end the session.
var ErrUnauthorized = pterrors.New(pterrors.ErrCodeAPIUnauthorized, "backend rejected the session token").
	WithSuggestion("Run 'producttrack auth login' to sign in again")

// APIError is a non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// TokenSource supplies the bearer token for each request. The session
// store satisfies it.
type TokenSource interface {
	Token() string
}

// Client is the ProductTrack backend API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *log.Logger

	tokens TokenSource
}

// NewClient creates a client for baseURL. tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: version.GetInfo().UserAgent(),
		Logger:    log.DefaultLogger(),
		tokens:    tokens,
	}
}

// WithTimeout sets the HTTP timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.HTTPClient.Timeout = d
	return c
}

// errorResponse covers the backend's error bodies, which use either key.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Mensaje string `json:"mensaje"`
}

// do sends body as JSON and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return pterrors.Wrap(pterrors.ErrCodeAPIRequest, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}
	return c.send(ctx, method, path, query, reqBody, "application/json", out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	requestID := uuid.NewString()
	ctx = log.ContextWithRequestID(ctx, requestID)
	logger := c.Logger.WithContext(ctx)

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return pterrors.Wrap(pterrors.ErrCodeAPIRequest, "failed to create request", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("backend request failed", "method", method, "path", path, "error", err)
		return pterrors.NewAPIUnreachableError(c.BaseURL, err)
	}
	defer resp.Body.Close()

	logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	return parseResponse(resp, requestID, out)
}

// parseResponse maps the status and decodes a 2xx body into target.
func parseResponse(resp *http.Response, requestID string, target any) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
			RequestID:  requestID,
		}
	}

	if target == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return pterrors.Wrap(pterrors.ErrCodeAPIResponse, "failed to read response", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if s, ok := target.(*string); ok && !json.Valid(data) {
		*s = string(data)
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return pterrors.Wrap(pterrors.ErrCodeAPIResponse, "failed to decode response", err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		for _, m := range []string{errResp.Mensaje, errResp.Message, errResp.Error} {
			if m != "" {
				return m
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the HTTP status of an *APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if IsUnauthorized(err) {
		return http.StatusUnauthorized
	}
	return 0
}

// Message is the text to show for err: the backend's own message for API
// errors, the error text otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var ptErr *pterrors.ProductTrackError
	if errors.As(err, &ptErr) {
		return ptErr.Message
	}
	return err.Error()
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
