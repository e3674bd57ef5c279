package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/exitcode"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/session/sessiontest"
)

// harness runs the root command against a fake backend with a private home
// directory.
type harness struct {
	t    *testing.T
	home string
	hits atomic.Int32
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{t: t, home: t.TempDir()}
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("PRODUCTTRACK_API_URL", srv.URL)
	t.Setenv("PRODUCTTRACK_HOME", "")
	t.Setenv("CI", "true")
	return h
}

// signIn persists a token for s the way a login would.
func (h *harness) signIn(s *session.Session) {
	h.t.Helper()
	kv, err := keystore.OpenFile(filepath.Join(h.home, keystore.FileName))
	require.NoError(h.t, err)
	require.NoError(h.t, kv.Set(keystore.KeyToken, sessiontest.Token(h.t, s)))
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--home", h.home, "--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between executions of the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestAnonymousCommandsNeedLogin(t *testing.T) {
	h := newHarness(t, nil)

	for _, args := range [][]string{
		{"inventory"},
		{"history"},
		{"team", "list"},
		{"audit", "users"},
		{"nutriscan", "history"},
		{"auth", "status"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := h.run(args...)
			require.Error(t, err)
			assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeNotAuthenticated), "got %v", err)
			assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
		})
	}
	assert.Zero(t, h.hits.Load())
}

func TestSectionsFollowTheRouteGuard(t *testing.T) {
	tests := []struct {
		name    string
		session *session.Session
		args    []string
	}{
		{"individual has no team", sessiontest.Individual(), []string{"team", "list"}},
		{"owner has no audit", sessiontest.Owner(), []string{"audit", "users"}},
		{"member has no team", sessiontest.TeamMember(session.TeamRoleEditor), []string{"team", "list"}},
		{"individual has no broadcast", sessiontest.Individual(), []string{"notifications", "broadcast", "--title", "Hola", "--message", "Una versión nueva"}},
		{"owner has no nutriscan", sessiontest.Owner(), []string{"nutriscan", "history"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.signIn(tt.session)

			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeNotAuthorized), "got %v", err)
			assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
			assert.Zero(t, h.hits.Load())
		})
	}
}

func TestPendingProfileOnlyAllowsCompletion(t *testing.T) {
	h := newHarness(t, nil)
	member := sessiontest.TeamMember(session.TeamRoleReader)
	member.ProfileComplete = true
	h.signIn(member)

	_, err := h.run("inventory")
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeNotAuthorized))
	assert.Contains(t, err.Error(), "profile complete")

	out, err := h.run("nav")
	require.NoError(t, err)
	assert.Contains(t, out, "No sections available")
}

func TestUsageErrorsExitTwo(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(sessiontest.Individual())

	for _, args := range [][]string{
		{"history", "--action", "vendido"},
		{"inventory", "show", "abc"},
		{"inventory", "show", "0"},
		{"guard"},
		{"profile", "update"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := h.run(args...)
			require.Error(t, err)
			assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeInvalidInput), "got %v", err)
			assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
		})
	}
	assert.Zero(t, h.hits.Load())
}

func TestDestructiveCommandsNeedYesWithoutTerminal(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(sessiontest.Individual())

	_, err := h.run("inventory", "delete", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes is required")
	assert.Zero(t, h.hits.Load())
}

func TestInventoryDelete(t *testing.T) {
	var method, path string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	h.signIn(sessiontest.Individual())

	out, err := h.run("inventory", "delete", "4", "--yes")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/productos/4", path)
	assert.Contains(t, out, "Product 4 deleted.")
}

func TestReaderCannotComment(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(sessiontest.TeamMember(session.TeamRoleReader))

	_, err := h.run("inventory", "comment", "4", "Revisar fechas")
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeNotAuthorized))
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	h := newHarness(t, nil)
	admin := sessiontest.Admin(session.AccountBusiness)
	h.signIn(admin)

	_, err := h.run("audit", "users", "--deactivate", "4")
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeInvalidInput))
	assert.Zero(t, h.hits.Load())
}

func TestDeveloperCannotChangeUsers(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(sessiontest.Developer(session.AccountBusiness))

	_, err := h.run("audit", "users", "--reactivate", "9")
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeNotAuthorized))
	assert.Zero(t, h.hits.Load())
}
