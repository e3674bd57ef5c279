package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/producttrack/producttrack/internal/ads"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/session"
)

// Services are the app's collaborators.
type Services struct {
	Store  *session.Store
	API    *api.Client
	KV     keystore.Store
	Ads    *ads.Counter // nil disables ads
	Logger *log.Logger
}

// env is what screens share with the app.
type env struct {
	Services
	ctx    context.Context
	guard  *guard.Guard
	styles Styles

	// instances numbers every screen built, so results can find the exact
	// screen that asked for them.
	instances int
}

func (e *env) session() *session.Session { return e.Store.Session() }

func (e *env) authz() authz.Context { return e.guard.Context() }

func (e *env) newBase(path, title string) base {
	e.instances++
	return base{env: e, path: path, title: title, id: e.instances}
}

// run starts fn in the background. The result is tagged with the session
// generation at the time of the call and with the issuing screen instance.
func (e *env) run(path string, screen int, key string, fn func(context.Context) (any, error)) tea.Cmd {
	gen := e.Store.Generation()
	ctx := e.ctx
	return func() tea.Msg {
		v, err := fn(ctx)
		return resultMsg{gen: gen, path: path, screen: screen, key: key, value: v, err: err}
	}
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastWarning
	toastError
)

// toastDuration is how long a toast stays on the status line.
const toastDuration = 4 * time.Second

func notice(kind toastKind, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text, kind: kind} }
}

// screen is one routed view. Screens are pointers and mutate in place.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	Keys() []key.Binding
	// Capturing reports that a text input has focus, so global keys must
	// be passed through.
	Capturing() bool
	Busy() bool
}

// base carries the common screen state.
type base struct {
	env     *env
	path    string
	title   string
	id      int
	loading bool
}

func (b *base) Init() tea.Cmd       { return nil }
func (b *base) Keys() []key.Binding { return nil }
func (b *base) Capturing() bool     { return false }
func (b *base) Busy() bool          { return b.loading }

func (b *base) run(key string, fn func(context.Context) (any, error)) tea.Cmd {
	b.loading = true
	return b.env.run(b.path, b.id, key, fn)
}

func (b *base) header() string {
	return b.env.styles.Title.Render(b.title)
}

// failed reports err as a toast. Unauthorized errors never reach screens.
func failed(err error) tea.Cmd {
	return notice(toastError, api.Message(err))
}
