package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/config"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/ux"
	"github.com/producttrack/producttrack/internal/version"
)

// settings is what every command resolves before doing anything: flags,
// home directory and effective configuration.
type settings struct {
	cc   *CommandContext
	home string
	cfg  *config.Config
	out  ux.Formatter

	format  string
	noColor bool
	stdout  io.Writer
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	home, err := config.ResolveHome(cc.Home)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(filepath.Join(home, ".env")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}

	s := &settings{cc: cc, home: home, cfg: cfg, stdout: cmd.OutOrStdout()}
	s.format = cfg.Defaults.Format
	if cc.Format != "" {
		s.format = cc.Format
	}
	s.noColor = cc.NoColor || cfg.Defaults.NoColor || os.Getenv("NO_COLOR") != ""

	s.out, err = ux.NewFormatter(s.format, &ux.FormatterOptions{Writer: s.stdout, NoColor: s.noColor})
	if err != nil {
		return nil, pterrors.Wrap(pterrors.ErrCodeConfigInvalid, "invalid --format", err)
	}
	return s, nil
}

// structured reports whether output goes to a machine format.
func (s *settings) structured() bool {
	return s.format == "json" || s.format == "yaml"
}

// say prints a human message. It is suppressed by --quiet and by the
// structured formats, which carry only data.
func (s *settings) say(format string, args ...any) {
	if s.cc.Quiet || s.structured() {
		return
	}
	fmt.Fprintf(s.stdout, format+"\n", args...)
}

// emit writes data in the chosen format. Text output uses the table.
func (s *settings) emit(t *ux.Table) error {
	return s.out.Format(t)
}

// app is a command's view of the client: settings plus the session, the
// backend client and the route guard.
type app struct {
	*settings

	logger *log.Logger
	kv     keystore.Store
	store  *session.Store
	client *api.Client
	guard  *guard.Guard

	logFile io.Closer
}

// newApp bootstraps the client for one command: logging, the state file,
// the session and the backend client. Call close when done.
func newApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{settings: s}

	if err := a.setupLogging(cmd); err != nil {
		return nil, err
	}

	fs, err := keystore.OpenFile(filepath.Join(s.home, keystore.FileName))
	if err != nil {
		a.close()
		return nil, err
	}
	a.kv = fs
	if pass := s.cfg.Session.StatePassphrase; pass != "" {
		if a.kv, err = keystore.Seal(fs, pass, keystore.KeyToken); err != nil {
			a.close()
			return nil, err
		}
	}

	decoder := session.NewDecoder([]byte(s.cfg.Session.TokenSecret)).WithLogger(a.logger)
	a.store = session.NewStore(a.kv, decoder, a.logger)
	a.store.Initialize(cmd.Context())

	a.client = api.NewClient(s.cfg.API.URL, a.store).WithTimeout(s.cfg.API.Timeout)
	a.client.Logger = a.logger
	a.guard = guard.New(a.store)

	a.logger.DebugContext(cmd.Context(), "client ready",
		"command", cmd.CommandPath(),
		"home", s.home,
		"api", s.cfg.API.URL,
		"state", a.guard.State().String())
	return a, nil
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	level := a.cfg.Logging.Level
	if a.cc.LogLevel != "" {
		level = a.cc.LogLevel
	}
	format := a.cfg.Logging.Format
	if a.cc.LogFormat != "" {
		format = a.cc.LogFormat
	}

	lc := log.Config{
		Level:          log.ParseLevel(level),
		Format:         log.ParseFormat(format),
		ServiceVersion: version.GetInfo().Version,
	}

	if a.cc.Verbose {
		lc.Level = log.LevelDebug
		lc.Output = cmd.ErrOrStderr()
	} else {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Logging.File), 0o700); err != nil {
			return pterrors.Wrap(pterrors.ErrCodeDirectoryFailed, "failed to create log directory", err)
		}
		f, err := os.OpenFile(a.cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return pterrors.Wrap(pterrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to open log file %s", a.cfg.Logging.File), err)
		}
		lc.Output = f
		a.logFile = f
	}

	a.logger = log.New(lc)
	log.SetDefaultLogger(a.logger)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// access returns the capabilities of the current session.
func (a *app) access() authz.Context {
	return a.guard.Context()
}

// session returns the signed-in session or a not-authenticated error.
func (a *app) session() (*session.Session, error) {
	s := a.store.Session()
	if s == nil {
		return nil, pterrors.NewNotAuthenticatedError()
	}
	return s, nil
}

// require runs the route guard for path the way the terminal UI would and
// fails unless it renders path itself.
func (a *app) require(path string) error {
	switch a.guard.State() {
	case guard.Anonymous:
		return pterrors.NewNotAuthenticatedError()
	case guard.AuthenticatedIncomplete:
		if guard.Clean(path) != guard.PathCompleteProfile {
			return pterrors.New(pterrors.ErrCodeNotAuthorized, "profile setup is pending").
				WithSuggestion("Run 'producttrack profile complete' to finish your profile")
		}
	}

	navigation, err := a.guard.Navigate(path)
	if err != nil {
		return err
	}
	d := navigation.Decision
	if d.Action == guard.Render && d.Target == guard.Clean(path) {
		return nil
	}

	what := guard.Clean(path)
	if r, ok := guard.Lookup(path); ok {
		what = r.Title
	}
	a.logger.Debug("route denied", "path", guard.Clean(path), "target", d.Target, "reason", d.Reason)
	return pterrors.NewNotAuthorizedError(what, d.Target)
}

// requireSection is require for a path inside the session's own section.
func (a *app) requireSection(suffix string) error {
	if a.guard.State() == guard.Anonymous {
		return pterrors.NewNotAuthenticatedError()
	}
	return a.require(a.access().BasePath + suffix)
}

// withApp adapts a command body that needs the bootstrapped client.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args, a)
	}
}
