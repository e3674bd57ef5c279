package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/notify"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, staticToken("tok-123"))
	c.Logger = log.Discard()
	return c
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"idUsuario":7,"username":"ana"}`))
	})

	u, err := c.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "ana", u.Username)

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get(RequestIDHeader))
	assert.NoError(t, err, "request id is a uuid")
	assert.Contains(t, got.Get("User-Agent"), "producttrack-cli/")
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	c.Logger = log.Discard()
	require.NoError(t, c.Register(context.Background(), Registration{Username: "x"}))
	assert.Empty(t, auth)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantUnauth  bool
		wantStatus  int
		wantMessage string
	}{
		{"401 is unauthorized", http.StatusUnauthorized, `{"message":"expired"}`, true, http.StatusUnauthorized, ""},
		{"mensaje key", http.StatusBadRequest, `{"mensaje":"Correo ya registrado"}`, false, 400, "Correo ya registrado"},
		{"message key", http.StatusConflict, `{"message":"duplicate"}`, false, 409, "duplicate"},
		{"error key", http.StatusForbidden, `{"error":"forbidden"}`, false, 403, "forbidden"},
		{"plain text body", http.StatusInternalServerError, `boom`, false, 500, "boom"},
		{"empty body", http.StatusNotFound, ``, false, 404, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.DeleteProduct(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantUnauth, IsUnauthorized(err))
			assert.Equal(t, tt.wantStatus, StatusOf(err))
			if tt.wantUnauth {
				assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeAPIUnauthorized))
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantMessage, Message(err))
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(base, nil)
	c.Logger = log.Discard()
	_, err := c.GetUser(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeAPIUnreachable))
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetUser(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"jwt","user":{"idUsuario":3,"rol":"USUARIO"}}`))
	})

	resp, err := c.Login(context.Background(), "a@b.c", "right")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, int64(3), resp.User.UserID())

	_, err = c.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err), "bad credentials must not look like a dead session")
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeAPIUnauthorized))
}

func TestLoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{}}`))
	})
	_, err := c.Login(context.Background(), "a@b.c", "x")
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeAPIResponse))
}

func TestListProductsFiltersByAccountType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"nombre":"Leche","usuario":{"idUsuario":1,"tipoUsuario":"INDIVIDUAL"}},
			{"id":2,"nombre":"Arroz","usuario":{"idUsuario":2,"tipoUsuario":"EMPRESARIAL"}},
			{"id":3,"nombre":"Sin dueño"}
		]`))
	})

	all, err := c.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	biz, err := c.ListProducts(context.Background(), "empresarial")
	require.NoError(t, err)
	require.Len(t, biz, 1)
	assert.Equal(t, "Arroz", biz[0].Name)
}

func TestQueryParameters(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})

	pending := true
	_, err := c.FilterTeam(context.Background(), TeamFilter{TeamRole: "EDITOR", ProfileComplete: &pending})
	require.NoError(t, err)
	assert.Equal(t, "perfilCompleto=true&rolEquipo=EDITOR", query)

	_, err = c.ListUsers(context.Background(), UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, query)

	_, err = c.Categories(context.Background(), "individual")
	require.NoError(t, err)
	assert.Equal(t, "tipoUsuario=INDIVIDUAL", query)
}

func TestAddTeamMemberDefaults(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"idUsuario":9}`))
	})

	m, err := c.AddTeamMember(context.Background(), NewTeamMember{Username: "luis", TeamRole: "LECTOR"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), m.ID)
	assert.Equal(t, true, body["perfilCompleto"])
	assert.Equal(t, "activo", body["estado"])
}

func TestPreferences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/1"):
			_, _ = w.Write([]byte(`{"stockBajo":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	prefs, err := c.Preferences(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, prefs.LowStock)
	assert.True(t, prefs.Expired, "absent keys default to enabled")

	prefs, err = c.Preferences(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, notify.AllEnabled(), prefs)
}

func TestAnalyzeMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ocr/nutriscan-ocr", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, AnalysisOCR, r.FormValue("tipoAnalisis"))

		f, hdr, err := r.FormFile("imagen")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "label.jpg", hdr.Filename)
		assert.Equal(t, "JPEGDATA", string(data))

		_, _ = w.Write([]byte(`{"mensajeGPT":"ok","requiereConfirmacion":true,"registro":{"id":5,"consulta":"avena"}}`))
	})

	res, err := c.Analyze(context.Background(), "label.jpg", strings.NewReader("JPEGDATA"))
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	assert.Equal(t, int64(5), res.Record.ID)
}

func TestMessageResponses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"mensaje":"Código enviado"}`))
	})
	msg, err := c.RequestPasswordReset(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Código enviado", msg)
}

func TestEmptySuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.MarkRead(context.Background(), 4))

	names, err := c.ProductNames(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, names)
}
