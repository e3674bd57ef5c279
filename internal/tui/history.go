package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
)

// historyFilters cycle with f; empty means all actions.
var historyFilters = []string{"", api.ActionAdded, api.ActionModified, api.ActionDeleted}

type historyScreen struct {
	base
	table   table.Model
	entries []api.HistoryEntry
	filter  int
	shown   int
}

func newHistoryScreen(b base) *historyScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 17},
			{Title: "Product", Width: 24},
			{Title: "Action", Width: 11},
			{Title: "Quantity", Width: 12},
			{Title: "Price", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(14),
	)
	return &historyScreen{base: b, table: t}
}

func (s *historyScreen) Init() tea.Cmd {
	sess := s.env.session()
	if sess == nil {
		return nil
	}
	client, uid := s.env.API, sess.UserID
	return s.run("history", func(ctx context.Context) (any, error) {
		entries, err := client.History(ctx, uid)
		if err != nil {
			return nil, err
		}
		api.NewestFirst(entries)
		return entries, nil
	})
}

func (s *historyScreen) Keys() []key.Binding {
	return []key.Binding{binding("f", "filter by action")}
}

func (s *historyScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		s.entries = msg.value.([]api.HistoryEntry)
		s.rebuild()
		return nil
	case tea.KeyMsg:
		if msg.String() == "f" {
			s.filter = (s.filter + 1) % len(historyFilters)
			s.rebuild()
			return nil
		}
	}
	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *historyScreen) rebuild() {
	want := historyFilters[s.filter]
	var rows []table.Row
	for _, h := range s.entries {
		if want != "" && h.Kind() != want {
			continue
		}
		date := h.ChangedAt
		if t, ok := h.Time(); ok {
			date = t.Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{
			date,
			h.ProductName,
			h.Kind(),
			change(intText(h.PreviousQuantity), intText(h.NewQuantity)),
			change(priceText(h.PreviousPrice), priceText(h.NewPrice)),
		})
	}
	s.shown = len(rows)
	s.table.SetRows(rows)
	s.table.SetCursor(0)
}

func intText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func priceText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func change(before, after string) string {
	switch {
	case before == "" && after == "":
		return "-"
	case before == "" || before == after:
		return after
	case after == "":
		return before
	default:
		return before + " → " + after
	}
}

func (s *historyScreen) View() string {
	st := s.env.styles
	filter := "all actions"
	if f := historyFilters[s.filter]; f != "" {
		filter = f
	}
	noun := "changes"
	if s.shown == 1 {
		noun = "change"
	}
	summary := st.Muted.Render(fmt.Sprintf("%d %s · %s", s.shown, noun, filter))

	body := s.table.View()
	if len(s.entries) == 0 && !s.loading {
		body = st.Muted.Render("No inventory changes recorded yet.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), summary, body)
}
