package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/notify"
)

// settingsScreen edits the notification preferences. Every toggle is
// cached locally first and then sent to the backend.
type settingsScreen struct {
	base
	prefs  notify.Preferences
	loaded bool
	cursor int
}

func newSettingsScreen(b base) *settingsScreen {
	return &settingsScreen{base: b, prefs: notify.AllEnabled()}
}

func (s *settingsScreen) Init() tea.Cmd {
	sess := s.env.session()
	if sess == nil {
		return nil
	}
	client, uid := s.env.API, sess.UserID
	return s.run("load", func(ctx context.Context) (any, error) {
		return client.Preferences(ctx, uid)
	})
}

func (s *settingsScreen) Keys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "move")),
		key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("space", "toggle")),
	}
}

func (s *settingsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "load":
			s.prefs = msg.value.(notify.Preferences)
			s.loaded = true
			if err := notify.SavePreferences(s.env.KV, s.prefs); err != nil {
				s.env.Logger.WithError(err).Warn("failed to cache notification preferences")
			}
		case "save":
			return notice(toastSuccess, "Preferences updated")
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(notify.Kinds)-1 {
				s.cursor++
			}
		case "enter", " ":
			return s.toggle(notify.Kinds[s.cursor])
		}
	}
	return nil
}

func (s *settingsScreen) toggle(k notify.Kind) tea.Cmd {
	sess := s.env.session()
	if sess == nil || !s.loaded {
		return nil
	}
	s.prefs = s.prefs.With(k, !s.prefs.Enabled(k))
	if err := notify.SavePreferences(s.env.KV, s.prefs); err != nil {
		s.env.Logger.WithError(err).Warn("failed to cache notification preferences")
	}

	client, uid, prefs := s.env.API, sess.UserID, s.prefs
	return s.run("save", func(ctx context.Context) (any, error) {
		return nil, client.UpdatePreferences(ctx, uid, prefs)
	})
}

func (s *settingsScreen) View() string {
	st := s.env.styles
	rows := []string{
		s.header(),
		st.Subtitle.Render("Choose which notifications you want to receive. You can change this at any time."),
	}
	for i, k := range notify.Kinds {
		box := "[ ]"
		if s.prefs.Enabled(k) {
			box = st.Success.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", box, k.Label())
		if i == s.cursor {
			line = st.Highlighted.Render(fmt.Sprintf("%s %s", boxText(s.prefs.Enabled(k)), k.Label()))
		}
		rows = append(rows, line)
	}
	if !s.loaded && s.loading {
		rows = append(rows, "", st.Muted.Render("Loading preferences..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func boxText(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
