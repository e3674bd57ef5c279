package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/notify"
)

const (
	rTitle = iota
	rMessage
)

// reportsScreen broadcasts app update notices. Developer only.
type reportsScreen struct {
	formScreen
}

func newReportsScreen(b base) *reportsScreen {
	return &reportsScreen{formScreen{base: b, form: newForm("send",
		textField("Title", "New version available", true),
		textField("Message", "What changed", true).withValidator(minLength(10)),
	)}}
}

func (s *reportsScreen) Keys() []key.Binding {
	return []key.Binding{binding("enter", "next / send"), binding("esc", "clear")}
}

func (s *reportsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			s.form.Fail("Could not send the notification. Try again.")
			return failed(msg.err)
		}
		s.form.Reset()
		return tea.Batch(notice(toastSuccess, "Notification sent"), s.form.Focus())
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.form.Reset()
			return s.form.Focus()
		}
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}
	if !notify.CanNotify(s.env.KV, notify.KindAppUpdate) {
		return notice(toastWarning, "App update notifications are turned off in your settings")
	}
	client := s.env.API
	title, message := s.form.Value(rTitle), s.form.Value(rMessage)
	return s.run("send", func(ctx context.Context) (any, error) {
		return nil, client.SendAppUpdate(ctx, title, message)
	})
}

func (s *reportsScreen) View() string {
	st := s.env.styles
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		st.Subtitle.Render("Send an app update notice to every user."),
		s.form.View(st),
	)
}
