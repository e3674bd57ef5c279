package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/notify"
)

// loadInbox fetches the notifications shown to the signed-in user.
func loadInbox(ctx context.Context, e *env) ([]notify.Notification, error) {
	sess := e.session()
	if sess == nil {
		return nil, nil
	}
	return e.API.Inbox(ctx, sess.UserID, authz.Evaluate(sess))
}

// inboxScreen is the notification overlay opened with n.
type inboxScreen struct {
	base
	items  []notify.Notification
	cursor int
}

func newInboxScreen(e *env) *inboxScreen {
	return &inboxScreen{base: e.newBase(inboxPath, "Notifications")}
}

func (s *inboxScreen) Init() tea.Cmd {
	e := s.env
	return s.run("load", func(ctx context.Context) (any, error) {
		return loadInbox(ctx, e)
	})
}

func (s *inboxScreen) Keys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		binding("enter", "mark as read"),
		binding("esc", "close"),
	}
}

func (s *inboxScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "load":
			s.items = msg.value.([]notify.Notification)
			if s.cursor >= len(s.items) {
				s.cursor = 0
			}
		case "read":
			id := msg.value.(int64)
			for i := range s.items {
				if s.items[i].ID == id {
					s.items[i].Read = true
				}
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.items)-1 {
				s.cursor++
			}
		case "enter":
			if s.cursor >= len(s.items) || s.items[s.cursor].Read {
				return nil
			}
			id := s.items[s.cursor].ID
			client := s.env.API
			return s.run("read", func(ctx context.Context) (any, error) {
				return id, client.MarkRead(ctx, id)
			})
		}
	}
	return nil
}

func (s *inboxScreen) View() string {
	st := s.env.styles
	unread := notify.UnreadCount(s.items)
	rows := []string{s.header()}
	if unread > 0 {
		rows = append(rows, st.Badge.Render(fmt.Sprintf("%d unread", unread)))
	}
	if len(s.items) == 0 && !s.loading {
		rows = append(rows, st.Muted.Render("You have no notifications."))
	}

	for i, n := range s.items {
		label := string(n.Type)
		if k, ok := notify.KindOf(n.Type); ok {
			label = k.Label()
		}
		when := n.SentAt
		if t, ok := n.Time(); ok {
			when = t.Format("2006-01-02 15:04")
		}

		title := n.Title
		if !n.Read {
			title = st.Status.Render("● ") + title
		} else {
			title = "  " + st.Muted.Render(title)
		}
		entry := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"  "+n.Message,
			"  "+st.Muted.Render(label+" · "+when),
		)
		if i == s.cursor {
			entry = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color("63")).
				Render(entry)
		} else {
			entry = lipgloss.NewStyle().PaddingLeft(1).Render(entry)
		}
		rows = append(rows, entry)
	}
	return st.Border.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
