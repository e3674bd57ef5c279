package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/session"
)

// teamRoles are the roles an owner can hand out, in cycling order.
var teamRoles = []string{
	string(session.TeamRoleReader),
	string(session.TeamRoleCommenter),
	string(session.TeamRoleEditor),
}

// nextTeamRole returns the role after current, wrapping around. Unknown
// roles start the cycle over.
func nextTeamRole(current string) string {
	for i, r := range teamRoles {
		if r == current {
			return teamRoles[(i+1)%len(teamRoles)]
		}
	}
	return teamRoles[0]
}

const (
	tFullName = iota
	tUsername
	tEmail
	tPassword
	tPhone
	tAddress
	tRole
)

type teamMode int

const (
	teamList teamMode = iota
	teamForm
	teamConfirm
	teamSearch
)

// teamScreen lets a business owner manage the company's members.
type teamScreen struct {
	base
	table    table.Model
	members  []api.User
	mode     teamMode
	form     *form
	removing *api.User
	search   textinput.Model
	query    string
}

func newTeamScreen(b base) *teamScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 22},
			{Title: "Email", Width: 26},
			{Title: "Role", Width: 13},
			{Title: "Status", Width: 9},
			{Title: "Profile", Width: 9},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "full name"
	return &teamScreen{base: b, table: t, search: search}
}

func (s *teamScreen) Init() tea.Cmd { return s.load() }

func (s *teamScreen) load() tea.Cmd {
	client, query := s.env.API, s.query
	return s.run("members", func(ctx context.Context) (any, error) {
		if query == "" {
			return client.Team(ctx)
		}
		return client.FilterTeam(ctx, api.TeamFilter{FullName: query})
	})
}

func (s *teamScreen) Capturing() bool { return s.mode != teamList }

func (s *teamScreen) Keys() []key.Binding {
	switch s.mode {
	case teamForm:
		return []key.Binding{binding("esc", "cancel")}
	case teamConfirm:
		return []key.Binding{binding("y", "deactivate"), binding("n", "keep")}
	case teamSearch:
		return []key.Binding{binding("enter", "search"), binding("esc", "clear")}
	}
	return []key.Binding{
		binding("a", "add member"),
		binding("o", "cycle role"),
		binding("d", "deactivate"),
		binding("/", "search"),
		binding("r", "refresh"),
	}
}

func (s *teamScreen) selected() *api.User {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.members) {
		return nil
	}
	u := s.members[i]
	return &u
}

func (s *teamScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		return s.handleResult(r)
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch s.mode {
	case teamForm:
		return s.updateForm(km)
	case teamConfirm:
		return s.updateConfirm(km)
	case teamSearch:
		return s.updateSearch(km)
	}

	switch km.String() {
	case "a":
		s.form = memberForm()
		s.mode = teamForm
		return s.form.Focus()
	case "o":
		u := s.selected()
		if u == nil || s.loading {
			return nil
		}
		id, role := u.ID, nextTeamRole(u.TeamRole)
		client := s.env.API
		return s.run("role", func(ctx context.Context) (any, error) {
			return role, client.UpdateTeamMember(ctx, id, api.TeamMemberUpdate{TeamRole: role})
		})
	case "d":
		if u := s.selected(); u != nil && u.Active() {
			s.removing = u
			s.mode = teamConfirm
		}
		return nil
	case "/":
		s.mode = teamSearch
		s.search.SetValue(s.query)
		return s.search.Focus()
	case "r":
		return s.load()
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(km)
	return cmd
}

func (s *teamScreen) updateSearch(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "esc":
		s.search.Blur()
		s.mode = teamList
		if s.query == "" {
			return nil
		}
		s.query = ""
		return s.load()
	case "enter":
		s.search.Blur()
		s.mode = teamList
		s.query = s.search.Value()
		return s.load()
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(km)
	return cmd
}

func (s *teamScreen) updateForm(km tea.KeyMsg) tea.Cmd {
	if km.String() == "esc" {
		s.mode = teamList
		s.form = nil
		return nil
	}
	if s.loading {
		return nil
	}
	submitted, cmd := s.form.Update(km)
	if !submitted {
		return cmd
	}

	m := api.NewTeamMember{
		FullName: s.form.Value(tFullName),
		Username: s.form.Value(tUsername),
		Email:    s.form.Value(tEmail),
		Password: s.form.Value(tPassword),
		Phone:    s.form.Value(tPhone),
		Address:  s.form.Value(tAddress),
		TeamRole: s.form.Value(tRole),
	}
	if sess := s.env.session(); sess != nil {
		m.CompanyID = sess.CompanyID
	}
	client := s.env.API
	return s.run("add", func(ctx context.Context) (any, error) {
		return client.AddTeamMember(ctx, m)
	})
}

func (s *teamScreen) updateConfirm(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "y", "enter":
		if s.removing == nil || s.loading {
			return nil
		}
		id := s.removing.ID
		client := s.env.API
		return s.run("deactivate", func(ctx context.Context) (any, error) {
			return id, client.DeactivateTeamMember(ctx, id)
		})
	case "n", "esc":
		s.removing = nil
		s.mode = teamList
	}
	return nil
}

func (s *teamScreen) handleResult(r resultMsg) tea.Cmd {
	s.loading = false
	if r.err != nil {
		if s.mode == teamForm {
			s.form.Fail(api.Message(r.err))
			return nil
		}
		return failed(r.err)
	}

	switch r.key {
	case "members":
		s.members = r.value.([]api.User)
		s.refresh()
	case "add":
		u := r.value.(*api.User)
		s.mode = teamList
		s.form = nil
		return tea.Batch(
			notice(toastSuccess, fmt.Sprintf("Added %s; they finish their profile on first sign-in", u.FullName)),
			s.load(),
		)
	case "role":
		return tea.Batch(notice(toastSuccess, "Role changed to "+r.value.(string)), s.load())
	case "deactivate":
		s.mode = teamList
		s.removing = nil
		return tea.Batch(notice(toastSuccess, "Member deactivated"), s.load())
	}
	return nil
}

func (s *teamScreen) refresh() {
	rows := make([]table.Row, 0, len(s.members))
	for _, u := range s.members {
		profile := "done"
		if u.ProfileComplete {
			profile = "pending"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(u.ID, 10),
			u.FullName,
			u.Email,
			u.TeamRole,
			u.Status,
			profile,
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(0, len(rows)-1))
	}
}

func (s *teamScreen) View() string {
	st := s.env.styles
	switch s.mode {
	case teamForm:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Subtitle.Render("New team member"), s.form.View(st))
	case teamConfirm:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(),
			st.Border.Render(fmt.Sprintf("Deactivate %s? They will no longer be able to sign in.\n\n", s.removing.FullName)+
				st.Muted.Render("y: deactivate · n: keep")))
	}

	summary := st.Muted.Render(fmt.Sprintf("%d members", len(s.members)))
	if s.mode == teamSearch {
		summary = s.search.View()
	} else if s.query != "" {
		summary += st.Muted.Render(fmt.Sprintf(" · matching %q", s.query))
	}
	body := s.table.View()
	if len(s.members) == 0 && !s.loading {
		body = st.Muted.Render("Your team is empty. Press a to add someone.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), summary, body)
}

func memberForm() *form {
	return newForm("add member",
		textField("Full name", "", true),
		textField("Username", "", true).withValidator(minLength(3)),
		textField("Email", "name@company.com", true).withValidator(looksLikeEmail),
		secretField("Temporary password", true).withValidator(account.ValidatePassword),
		textField("Phone", "", false),
		textField("Address", "", false),
		choiceField("Team role", teamRoles...),
	)
}
