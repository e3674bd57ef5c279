package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/producttrack/producttrack/internal/ads"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/nav"
	"github.com/producttrack/producttrack/internal/notify"
	"github.com/producttrack/producttrack/internal/session"
)

// inboxPath tags results that belong to the notification inbox overlay.
const inboxPath = "#inbox"

type toast struct {
	text string
	kind toastKind
	id   int
}

type adState struct {
	visible  bool
	closable bool
	text     string
	id       int
}

// App is the root Bubble Tea model. Every navigation goes through the
// route guard; protected screens are built only once the session store has
// finished loading.
type App struct {
	env      *env
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	navStyle nav.Styles

	// path is the rendered route; pending is a route waiting for the
	// session to load.
	path      string
	pending   string
	screen    screen
	screenID  int
	screenGen uint64

	inbox  *inboxScreen
	unread int

	sessions    chan *session.Session
	unsubscribe func()

	toast     toast
	ad        adState
	adTicking bool
	seq       int

	width    int
	height   int
	showHelp bool
	quitting bool
}

// New creates the app starting at start. The session store is subscribed
// immediately; Init runs the store's initialization.
func New(ctx context.Context, svc Services, start string) App {
	if svc.Logger == nil {
		svc.Logger = log.DefaultLogger()
	}
	e := &env{
		Services: svc,
		ctx:      ctx,
		guard:    guard.New(svc.Store),
		styles:   DefaultStyles(),
	}

	sessions := make(chan *session.Session, 1)
	unsubscribe := svc.Store.Subscribe(func(s *session.Session) {
		// Keep only the newest session if the loop has not caught up.
		select {
		case sessions <- s:
		default:
			select {
			case <-sessions:
			default:
			}
			select {
			case sessions <- s:
			default:
			}
		}
	})

	m := App{
		env:         e,
		keys:        defaultKeys(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		navStyle:    nav.DefaultStyles(),
		sessions:    sessions,
		unsubscribe: unsubscribe,
	}
	m.goTo(start, false)
	return m
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, svc Services, start string) error {
	app := New(ctx, svc, start)
	defer app.unsubscribe()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m App) Init() tea.Cmd {
	store := m.env.Store
	ctx := m.env.ctx
	cmds := []tea.Cmd{
		func() tea.Msg {
			store.Initialize(ctx)
			return sessionReadyMsg{}
		},
		m.spinner.Tick,
		waitForSession(m.sessions),
	}
	if m.screen != nil {
		cmds = append(cmds, m.screen.Init())
	}
	return tea.Batch(cmds...)
}

func waitForSession(ch <-chan *session.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionChangedMsg{session: <-ch}
	}
}

// Update implements tea.Model.
func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, m.forward(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionReadyMsg:
		target := m.pending
		if target == "" {
			target = m.path
		}
		cmd := m.goTo(target, m.screenGen != m.env.Store.Generation())
		return m, tea.Batch(cmd, m.sessionStarted())

	case sessionChangedMsg:
		cmds := []tea.Cmd{waitForSession(m.sessions)}
		if m.env.Store.Loading() {
			return m, tea.Batch(cmds...)
		}
		if m.screen == nil || m.screenGen != m.env.Store.Generation() {
			target := m.pending
			if target == "" {
				target = m.path
			}
			m.inbox = nil
			cmds = append(cmds, m.goTo(target, true), m.sessionStarted())
		}
		return m, tea.Batch(cmds...)

	case navigateMsg:
		return m, m.goTo(msg.path, true)

	case resultMsg:
		return m.handleResult(msg)

	case toastMsg:
		m.seq++
		m.toast = toast{text: msg.text, kind: msg.kind, id: m.seq}
		id := m.seq
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })

	case toastExpiredMsg:
		if msg.id == m.toast.id {
			m.toast = toast{}
		}
		return m, nil

	case adTickMsg:
		cmds := []tea.Cmd{adTick()}
		if m.env.authz().Authenticated && !m.ad.visible {
			show, err := m.env.Ads.Tick()
			if err != nil {
				m.env.Logger.WithError(err).Warn("ad counter update failed")
			}
			if show {
				cmds = append(cmds, m.showAd())
			}
		}
		return m, tea.Batch(cmds...)

	case adClosableMsg:
		if msg.id == m.ad.id {
			m.ad.closable = true
		}
		return m, nil
	}

	return m, m.forward(msg)
}

func (m App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.ad.visible {
		if m.ad.closable && (msg.String() == "esc" || msg.String() == "enter") {
			m.ad = adState{}
		}
		return m, nil
	}

	if m.inbox != nil {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Inbox) {
			m.inbox = nil
			return m, m.loadUnread()
		}
		return m, m.inbox.Update(msg)
	}

	c := m.env.authz()
	if key.Matches(msg, m.keys.Logout) && c.Authenticated {
		return m, m.logout("Signed out")
	}

	capturing := m.screen != nil && m.screen.Capturing()
	if !capturing {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Inbox) && c.Authenticated && !c.ProfileSetupPending:
			m.inbox = newInboxScreen(m.env)
			return m, m.inbox.Init()
		case key.Matches(msg, m.keys.Navigate):
			if l, ok := nav.ByKey(nav.Links(c), msg.String()); ok {
				return m, m.goTo(l.Href, true)
			}
			return m, nil
		}
	}

	return m, m.forward(msg)
}

func (m App) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.env.Store.Generation() {
		m.env.Logger.Debug("dropping result from a previous session", "path", msg.path, "key", msg.key)
		return m, nil
	}
	if api.IsUnauthorized(msg.err) {
		return m, m.logout("Your session has expired. Please sign in again.")
	}

	switch msg.path {
	case "":
		if msg.key == "unread" && msg.err == nil {
			m.unread = notify.UnreadCount(msg.value.([]notify.Notification))
		}
		return m, nil
	case inboxPath:
		if m.inbox == nil || msg.screen != m.inbox.id {
			return m, nil
		}
		return m, m.inbox.Update(msg)
	case m.path:
		if m.screen == nil || msg.screen != m.screenID {
			m.env.Logger.Debug("dropping result for an earlier visit", "path", msg.path, "key", msg.key)
			return m, nil
		}
		return m, m.screen.Update(msg)
	default:
		m.env.Logger.Debug("dropping result for a screen no longer shown", "path", msg.path, "key", msg.key)
		return m, nil
	}
}

// goTo routes path through the guard. When rebuild is false and the target
// is already shown, the screen is kept.
func (m *App) goTo(path string, rebuild bool) tea.Cmd {
	n, err := m.env.guard.Navigate(path)
	if err != nil {
		m.env.Logger.WithError(err).Error("navigation failed", "path", path)
		return failed(err)
	}
	if len(n.Trail) > 1 {
		m.env.Logger.Debug("redirected", "trail", strings.Join(n.Trail, " -> "), "reason", n.Decision.Reason)
	}

	d := n.Decision
	if d.Action == guard.Wait {
		m.pending = d.Target
		m.screen = nil
		return nil
	}

	m.pending = ""
	if d.Target == m.path && m.screen != nil && !rebuild {
		return nil
	}
	m.path = d.Target
	m.screen = m.build(d.Target)
	m.screenGen = m.env.Store.Generation()
	return m.screen.Init()
}

func (m *App) logout(message string) tea.Cmd {
	if err := m.env.Store.Logout(); err != nil {
		m.env.Logger.WithError(err).Warn("failed to clear persisted session")
	}
	m.inbox = nil
	m.unread = 0
	m.ad = adState{}
	return tea.Batch(m.goTo(guard.PathLogin, true), notice(toastInfo, message))
}

func (m App) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// sessionStarted runs the per-session work once a session is active: the
// unread badge and the ad schedule.
func (m *App) sessionStarted() tea.Cmd {
	c := m.env.authz()
	if !c.Authenticated || c.ProfileSetupPending {
		return nil
	}
	cmds := []tea.Cmd{m.loadUnread()}
	if m.env.Ads != nil {
		show, err := m.env.Ads.Start()
		if err != nil {
			m.env.Logger.WithError(err).Warn("ad counter update failed")
		}
		if show {
			cmds = append(cmds, m.showAd())
		}
		if !m.adTicking {
			m.adTicking = true
			cmds = append(cmds, adTick())
		}
	}
	return tea.Batch(cmds...)
}

func (m *App) loadUnread() tea.Cmd {
	e := m.env
	return e.run("", 0, "unread", func(ctx context.Context) (any, error) {
		return loadInbox(ctx, e)
	})
}

func (m *App) showAd() tea.Cmd {
	m.seq++
	m.ad = adState{visible: true, text: ads.Banner(m.env.Ads.Count()), id: m.seq}
	id := m.seq
	return tea.Tick(ads.CloseDelay, func(time.Time) tea.Msg { return adClosableMsg{id: id} })
}

func adTick() tea.Cmd {
	return tea.Tick(ads.TickInterval, func(time.Time) tea.Msg { return adTickMsg{} })
}

func (m App) forward(msg tea.Msg) tea.Cmd {
	if m.screen == nil {
		return nil
	}
	return m.screen.Update(msg)
}

// build constructs the screen for a rendered path.
func (m *App) build(path string) screen {
	e := m.env
	title := path
	if r, ok := guard.Lookup(path); ok {
		title = r.Title
	}
	b := e.newBase(path, title)
	m.screenID = b.id

	switch path {
	case guard.PathLogin:
		return newLoginScreen(b)
	case guard.PathRegister:
		return newRegisterScreen(b)
	case guard.PathTerms, guard.PathPrivacy:
		return newLegalScreen(b)
	case guard.PathRecoverPassword:
		return newRecoverScreen(b)
	case guard.PathVerifyCode:
		return newVerifyScreen(b)
	case guard.PathCompleteProfile:
		return newCompleteProfileScreen(b)
	case guard.PathProfile:
		return newProfileScreen(b)
	case guard.PathNutriScan:
		return newNutriScanScreen(b)
	case guard.PathAudit:
		return newAuditIndexScreen(b)
	case guard.PathAuditUsers:
		return newAuditUsersScreen(b)
	case guard.PathAuditTeam:
		return newAuditTeamScreen(b)
	case guard.PathAuditNutriScan:
		return newAuditNutriScanScreen(b)
	}

	switch {
	case strings.HasSuffix(path, guard.SuffixInventory):
		return newInventoryScreen(b)
	case strings.HasSuffix(path, guard.SuffixHistory):
		return newHistoryScreen(b)
	case strings.HasSuffix(path, guard.SuffixSettings):
		return newSettingsScreen(b)
	case strings.HasSuffix(path, guard.SuffixTeam):
		return newTeamScreen(b)
	case strings.HasSuffix(path, guard.SuffixReports):
		return newReportsScreen(b)
	default:
		return newHomeScreen(b)
	}
}

// Path returns the rendered route.
func (m App) Path() string { return m.path }

// Pending returns the route waiting for the session to load, if any.
func (m App) Pending() string { return m.pending }
