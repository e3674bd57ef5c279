package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
)

// pendingAction is a destructive action waiting for y/n.
type pendingAction struct {
	prompt string
	key    string
	fn     func(context.Context) (any, error)
}

// confirmable adds a y/n confirmation step to a screen.
type confirmable struct {
	pending *pendingAction
}

func (c *confirmable) ask(prompt, key string, fn func(context.Context) (any, error)) {
	c.pending = &pendingAction{prompt: prompt, key: key, fn: fn}
}

// answer handles a key while a confirmation is open.
func (c *confirmable) answer(b *base, km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "y", "enter":
		if b.loading {
			return nil
		}
		p := c.pending
		c.pending = nil
		return b.run(p.key, p.fn)
	case "n", "esc":
		c.pending = nil
	}
	return nil
}

func (c *confirmable) view(st Styles, verb string) string {
	return st.Border.Render(c.pending.prompt + "\n\n" + st.Muted.Render("y: "+verb+" · n: cancel"))
}

// auditIndexScreen links to the three audit sections.
type auditIndexScreen struct {
	base
	cursor int
}

var auditSections = []struct {
	path, label, about string
}{
	{guard.PathAuditUsers, "Users", "Every account on the platform, with deactivation and reactivation."},
	{guard.PathAuditTeam, "Teams", "Members of business teams."},
	{guard.PathAuditNutriScan, "NutriScan", "Stored label analyses."},
}

func newAuditIndexScreen(b base) *auditIndexScreen {
	return &auditIndexScreen{base: b}
}

func (s *auditIndexScreen) Keys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		binding("enter", "open"),
	}
}

func (s *auditIndexScreen) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch km.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(auditSections)-1 {
			s.cursor++
		}
	case "enter":
		return navigate(auditSections[s.cursor].path)
	}
	return nil
}

func (s *auditIndexScreen) View() string {
	st := s.env.styles
	mode := "read-only"
	if s.env.authz().AdministerAudit {
		mode = "administrator"
	}
	rows := []string{s.header(), st.Subtitle.Render("Audit access: " + mode)}
	for i, sec := range auditSections {
		label := sec.label
		if i == s.cursor {
			label = st.Highlighted.Render(label)
		}
		rows = append(rows, label, "  "+st.Muted.Render(sec.about))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func auditTable(cols ...table.Column) table.Model {
	return table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(14))
}

// cycle returns the next option after current.
func cycle(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

var (
	statusFilters      = []string{"", "activo", "inactivo"}
	accountTypeFilters = []string{"", "individual", "empresarial", "desarrollador"}
)

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

// auditUsersScreen lists every account.
type auditUsersScreen struct {
	base
	confirmable
	table  table.Model
	users  []api.User
	filter api.UserFilter
}

func newAuditUsersScreen(b base) *auditUsersScreen {
	return &auditUsersScreen{base: b, table: auditTable(
		table.Column{Title: "ID", Width: 5},
		table.Column{Title: "Name", Width: 22},
		table.Column{Title: "Email", Width: 26},
		table.Column{Title: "Type", Width: 13},
		table.Column{Title: "Role", Width: 14},
		table.Column{Title: "Status", Width: 9},
	)}
}

func (s *auditUsersScreen) Init() tea.Cmd {
	client, f := s.env.API, s.filter
	return s.run("users", func(ctx context.Context) (any, error) {
		return client.ListUsers(ctx, f)
	})
}

func (s *auditUsersScreen) Capturing() bool { return s.pending != nil }

func (s *auditUsersScreen) Keys() []key.Binding {
	if s.pending != nil {
		return []key.Binding{binding("y", "confirm"), binding("n", "cancel")}
	}
	keys := []key.Binding{binding("s", "status filter"), binding("t", "type filter"), binding("r", "refresh")}
	if s.env.authz().AdministerAudit {
		keys = append(keys, binding("d", "deactivate"), binding("a", "reactivate"))
	}
	return keys
}

func (s *auditUsersScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "users":
			s.users = msg.value.([]api.User)
			s.refresh()
			return nil
		case "deactivate":
			return tea.Batch(notice(toastSuccess, "User deactivated"), s.Init())
		case "reactivate":
			return tea.Batch(notice(toastSuccess, "User reactivated"), s.Init())
		}
		return nil

	case tea.KeyMsg:
		if s.pending != nil {
			return s.answer(&s.base, msg)
		}
		switch msg.String() {
		case "s":
			s.filter.Status = cycle(statusFilters, s.filter.Status)
			return s.Init()
		case "t":
			s.filter.AccountType = cycle(accountTypeFilters, s.filter.AccountType)
			return s.Init()
		case "r":
			return s.Init()
		case "d", "a":
			return s.administer(msg.String() == "d")
		}
		var cmd tea.Cmd
		s.table, cmd = s.table.Update(msg)
		return cmd
	}
	return nil
}

func (s *auditUsersScreen) administer(deactivate bool) tea.Cmd {
	i := s.table.Cursor()
	if !s.env.authz().AdministerAudit || i < 0 || i >= len(s.users) {
		return nil
	}
	u := s.users[i]
	client, id := s.env.API, u.ID
	if !deactivate {
		if u.Active() {
			return nil
		}
		s.ask(fmt.Sprintf("Reactivate %s? They will regain access.", u.FullName), "reactivate",
			func(ctx context.Context) (any, error) { return nil, client.ReactivateUser(ctx, id) })
		return nil
	}

	if sess := s.env.session(); sess != nil && sess.UserID == id {
		return notice(toastWarning, "You cannot deactivate your own account")
	}
	if !u.Active() {
		return nil
	}
	s.ask(fmt.Sprintf("Deactivate %s? They will no longer be able to sign in.", u.FullName), "deactivate",
		func(ctx context.Context) (any, error) { return nil, client.DeactivateUser(ctx, id) })
	return nil
}

func (s *auditUsersScreen) refresh() {
	rows := make([]table.Row, 0, len(s.users))
	for _, u := range s.users {
		rows = append(rows, table.Row{
			strconv.FormatInt(u.ID, 10), u.FullName, u.Email, u.AccountType, u.Role, u.Status,
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(0, len(rows)-1))
	}
}

func (s *auditUsersScreen) View() string {
	st := s.env.styles
	if s.pending != nil {
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), s.view(st, "confirm"))
	}
	summary := st.Muted.Render(fmt.Sprintf("%d users · status %s · type %s",
		len(s.users), orAll(s.filter.Status), orAll(s.filter.AccountType)))
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), summary, s.table.View())
}

// auditTeamScreen lists team members.
type auditTeamScreen struct {
	base
	confirmable
	table   table.Model
	members []api.User
	filter  api.TeamFilter
}

func newAuditTeamScreen(b base) *auditTeamScreen {
	return &auditTeamScreen{base: b, table: auditTable(
		table.Column{Title: "ID", Width: 5},
		table.Column{Title: "Name", Width: 22},
		table.Column{Title: "Email", Width: 26},
		table.Column{Title: "Role", Width: 13},
		table.Column{Title: "Status", Width: 9},
	)}
}

func (s *auditTeamScreen) Init() tea.Cmd {
	client, f := s.env.API, s.filter
	return s.run("members", func(ctx context.Context) (any, error) {
		if f == (api.TeamFilter{}) {
			return client.Team(ctx)
		}
		return client.FilterTeam(ctx, f)
	})
}

func (s *auditTeamScreen) Capturing() bool { return s.pending != nil }

func (s *auditTeamScreen) Keys() []key.Binding {
	if s.pending != nil {
		return []key.Binding{binding("y", "confirm"), binding("n", "cancel")}
	}
	keys := []key.Binding{binding("s", "status filter"), binding("o", "role filter"), binding("r", "refresh")}
	if s.env.authz().AdministerAudit {
		keys = append(keys, binding("d", "deactivate"), binding("a", "reactivate"))
	}
	return keys
}

func (s *auditTeamScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "members":
			s.members = msg.value.([]api.User)
			rows := make([]table.Row, 0, len(s.members))
			for _, u := range s.members {
				rows = append(rows, table.Row{strconv.FormatInt(u.ID, 10), u.FullName, u.Email, u.TeamRole, u.Status})
			}
			s.table.SetRows(rows)
			if s.table.Cursor() >= len(rows) {
				s.table.SetCursor(max(0, len(rows)-1))
			}
			return nil
		case "deactivate":
			return tea.Batch(notice(toastSuccess, "Member deactivated"), s.Init())
		case "reactivate":
			return tea.Batch(notice(toastSuccess, "Member reactivated"), s.Init())
		}
		return nil

	case tea.KeyMsg:
		if s.pending != nil {
			return s.answer(&s.base, msg)
		}
		switch msg.String() {
		case "s":
			s.filter.Status = cycle(statusFilters, s.filter.Status)
			return s.Init()
		case "o":
			s.filter.TeamRole = cycle(append([]string{""}, teamRoles...), s.filter.TeamRole)
			return s.Init()
		case "r":
			return s.Init()
		case "d", "a":
			i := s.table.Cursor()
			if !s.env.authz().AdministerAudit || i < 0 || i >= len(s.members) {
				return nil
			}
			u := s.members[i]
			client, id := s.env.API, u.ID
			if msg.String() == "d" && u.Active() {
				s.ask(fmt.Sprintf("Deactivate %s?", u.FullName), "deactivate",
					func(ctx context.Context) (any, error) { return nil, client.DeactivateTeamMember(ctx, id) })
			} else if msg.String() == "a" && !u.Active() {
				s.ask(fmt.Sprintf("Reactivate %s?", u.FullName), "reactivate",
					func(ctx context.Context) (any, error) { return nil, client.ReactivateUser(ctx, id) })
			}
			return nil
		}
		var cmd tea.Cmd
		s.table, cmd = s.table.Update(msg)
		return cmd
	}
	return nil
}

func (s *auditTeamScreen) View() string {
	st := s.env.styles
	if s.pending != nil {
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), s.view(st, "confirm"))
	}
	summary := st.Muted.Render(fmt.Sprintf("%d members · status %s · role %s",
		len(s.members), orAll(s.filter.Status), orAll(s.filter.TeamRole)))
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), summary, s.table.View())
}

// auditNutriScanScreen lists stored analyses.
type auditNutriScanScreen struct {
	base
	confirmable
	table   table.Model
	records []api.ScanRecord
	detail  *viewport.Model
}

func newAuditNutriScanScreen(b base) *auditNutriScanScreen {
	return &auditNutriScanScreen{base: b, table: auditTable(
		table.Column{Title: "ID", Width: 5},
		table.Column{Title: "Query", Width: 26},
		table.Column{Title: "User", Width: 20},
		table.Column{Title: "Date", Width: 17},
		table.Column{Title: "Food", Width: 5},
		table.Column{Title: "Test", Width: 5},
	)}
}

func (s *auditNutriScanScreen) Init() tea.Cmd {
	client := s.env.API
	return s.run("records", func(ctx context.Context) (any, error) {
		return client.ScanRecords(ctx)
	})
}

func (s *auditNutriScanScreen) Capturing() bool { return s.pending != nil }

func (s *auditNutriScanScreen) Keys() []key.Binding {
	switch {
	case s.pending != nil:
		return []key.Binding{binding("y", "delete"), binding("n", "cancel")}
	case s.detail != nil:
		return []key.Binding{binding("esc", "close")}
	}
	keys := []key.Binding{binding("enter", "details"), binding("r", "refresh")}
	if s.env.authz().AdministerAudit {
		keys = append(keys, binding("t", "toggle test flag"), binding("x", "delete"))
	}
	return keys
}

func (s *auditNutriScanScreen) selected() *api.ScanRecord {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.records) {
		return nil
	}
	r := s.records[i]
	return &r
}

func (s *auditNutriScanScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "records":
			s.records = msg.value.([]api.ScanRecord)
			s.refresh()
			return nil
		case "update":
			return tea.Batch(notice(toastSuccess, "Record updated"), s.Init())
		case "delete":
			return tea.Batch(notice(toastSuccess, "Record deleted"), s.Init())
		}
		return nil

	case tea.KeyMsg:
		if s.pending != nil {
			return s.answer(&s.base, msg)
		}
		if s.detail != nil {
			if msg.String() == "esc" {
				s.detail = nil
				return nil
			}
			var cmd tea.Cmd
			*s.detail, cmd = s.detail.Update(msg)
			return cmd
		}

		admin := s.env.authz().AdministerAudit
		switch msg.String() {
		case "enter":
			if r := s.selected(); r != nil {
				vp := viewport.New(72, 14)
				vp.SetContent(recordDetail(*r))
				s.detail = &vp
			}
			return nil
		case "r":
			return s.Init()
		case "t":
			r := s.selected()
			if r == nil || !admin || s.loading {
				return nil
			}
			r.IsTest = !r.IsTest
			client, rec := s.env.API, *r
			return s.run("update", func(ctx context.Context) (any, error) {
				return nil, client.UpdateScanRecord(ctx, rec)
			})
		case "x":
			r := s.selected()
			if r == nil || !admin {
				return nil
			}
			client, id := s.env.API, r.ID
			s.ask(fmt.Sprintf("Delete analysis #%d %q?", r.ID, r.Query), "delete",
				func(ctx context.Context) (any, error) { return nil, client.DeleteScanRecord(ctx, id) })
			return nil
		}
		var cmd tea.Cmd
		s.table, cmd = s.table.Update(msg)
		return cmd
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (s *auditNutriScanScreen) refresh() {
	rows := make([]table.Row, 0, len(s.records))
	for _, r := range s.records {
		user := ""
		if r.User != nil {
			user = r.User.FullName
		}
		date := strings.Replace(r.AnalyzedAt, "T", " ", 1)
		if len(date) > 16 {
			date = date[:16]
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10), r.Query, user, date, yesNo(r.IsFood), yesNo(r.IsTest),
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(0, len(rows)-1))
	}
}

func recordDetail(r api.ScanRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nType: %s\nAnalyzed: %s\n", r.Query, r.AnalysisType, r.AnalyzedAt)
	if r.User != nil {
		fmt.Fprintf(&b, "User: %s (%s)\n", r.User.FullName, r.User.AccountType)
	}
	if r.Response != nil {
		fmt.Fprintf(&b, "\n%s\n\n(generated by %s)", r.Response.Message, r.Response.GeneratedBy)
	}
	return b.String()
}

func (s *auditNutriScanScreen) View() string {
	st := s.env.styles
	switch {
	case s.pending != nil:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), s.view(st, "delete"))
	case s.detail != nil:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Border.Render(s.detail.View()))
	}
	summary := st.Muted.Render(fmt.Sprintf("%d analyses", len(s.records)))
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), summary, s.table.View())
}
