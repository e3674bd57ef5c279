package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/session"
)

type profileMode int

const (
	profileView profileMode = iota
	profileEdit
	profilePassword
)

const (
	eUsername = iota
	eFullName
	eEmail
	ePhone
	eAddress
	eCompany
	eNIT
)

const (
	pwCurrent = iota
	pwNew
	pwConfirm
)

// profileDetails is the loaded user plus, for team members, the company
// they belong to.
type profileDetails struct {
	user    *api.User
	company *api.User
}

type profileScreen struct {
	base
	mode    profileMode
	details profileDetails
	form    *form
}

func newProfileScreen(b base) *profileScreen {
	return &profileScreen{base: b}
}

func (s *profileScreen) Init() tea.Cmd { return s.load() }

func (s *profileScreen) load() tea.Cmd {
	sess := s.env.session()
	if sess == nil {
		return nil
	}
	client, uid := s.env.API, sess.UserID
	teamMember := s.env.authz().TeamMember
	return s.run("load", func(ctx context.Context) (any, error) {
		u, err := client.GetUser(ctx, uid)
		if err != nil {
			return nil, err
		}
		d := profileDetails{user: u}
		if teamMember && u.CompanyID != nil {
			if d.company, err = client.GetCompany(ctx, *u.CompanyID); err != nil {
				return nil, err
			}
		}
		return d, nil
	})
}

func (s *profileScreen) Capturing() bool { return s.mode != profileView }

func (s *profileScreen) Keys() []key.Binding {
	if s.mode != profileView {
		return []key.Binding{binding("esc", "cancel")}
	}
	return []key.Binding{binding("e", "edit profile"), binding("p", "change password"), binding("r", "refresh")}
}

// ownsCompany reports whether the company fields are editable here.
func (s *profileScreen) ownsCompany() bool {
	return s.env.authz().Business && !s.env.authz().TeamMember
}

func (s *profileScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		return s.handleResult(r)
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if s.mode != profileView {
		if km.String() == "esc" {
			s.mode = profileView
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
		if s.mode == profileEdit {
			return s.save()
		}
		return s.changePassword()
	}

	switch km.String() {
	case "e":
		if s.details.user == nil {
			return nil
		}
		s.form = s.editForm()
		s.mode = profileEdit
		return s.form.Focus()
	case "p":
		s.form = newForm("change password",
			secretField("Current password", true),
			secretField("New password", true).withValidator(account.ValidatePassword),
			secretField("Confirm new password", true),
		)
		s.mode = profilePassword
		return s.form.Focus()
	case "r":
		return s.load()
	}
	return nil
}

func (s *profileScreen) editForm() *form {
	u := s.details.user
	fields := []field{
		textField("Username", "", true).withValidator(minLength(3)),
		textField("Full name", "", true),
		textField("Email", "", true).withValidator(looksLikeEmail),
		textField("Phone", "", false),
		textField("Address", "", false),
	}
	if s.ownsCompany() {
		fields = append(fields, textField("Company", "", true), textField("NIT", "", true))
	}
	f := newForm("save", fields...)
	f.SetValue(eUsername, u.Username)
	f.SetValue(eFullName, u.FullName)
	f.SetValue(eEmail, u.Email)
	f.SetValue(ePhone, u.Phone)
	f.SetValue(eAddress, u.Address)
	if s.ownsCompany() {
		f.SetValue(eCompany, u.CompanyName)
		f.SetValue(eNIT, u.NIT)
	}
	return f
}

func (s *profileScreen) save() tea.Cmd {
	id := s.details.user.ID
	update := api.UserUpdate{
		Username: s.form.Value(eUsername),
		FullName: s.form.Value(eFullName),
		Email:    s.form.Value(eEmail),
		Phone:    s.form.Value(ePhone),
		Address:  s.form.Value(eAddress),
	}
	if s.ownsCompany() {
		update.CompanyName = s.form.Value(eCompany)
		update.NIT = s.form.Value(eNIT)
	}
	client := s.env.API
	return s.run("save", func(ctx context.Context) (any, error) {
		if _, err := client.UpdateUser(ctx, id, update); err != nil {
			return nil, err
		}
		return client.GetUser(ctx, id)
	})
}

func (s *profileScreen) changePassword() tea.Cmd {
	if s.form.Value(pwNew) != s.form.Value(pwConfirm) {
		s.form.Fail("Passwords do not match")
		return nil
	}
	id := s.details.user.ID
	current, next := s.form.Value(pwCurrent), s.form.Value(pwNew)
	client := s.env.API
	return s.run("password", func(ctx context.Context) (any, error) {
		return client.ChangePassword(ctx, id, current, next)
	})
}

func (s *profileScreen) handleResult(r resultMsg) tea.Cmd {
	s.loading = false
	if r.err != nil {
		if s.form != nil && s.mode != profileView {
			s.form.Fail(api.Message(r.err))
			return nil
		}
		return failed(r.err)
	}

	switch r.key {
	case "load":
		s.details = r.value.(profileDetails)
	case "save":
		u := r.value.(*api.User)
		s.details.user = u
		s.mode = profileView
		s.form = nil
		s.syncUsername(u.Username)
		return notice(toastSuccess, "Profile updated")
	case "password":
		s.mode = profileView
		s.form = nil
		text := "Password changed"
		if m, _ := r.value.(string); m != "" {
			text = m
		}
		return notice(toastSuccess, text)
	}
	return nil
}

// syncUsername keeps the cached session in step with a renamed account.
func (s *profileScreen) syncUsername(username string) {
	sess := s.env.session()
	if sess == nil || username == "" || sess.Username == username {
		return
	}
	next := sess.Clone()
	next.Username = username
	if err := session.RecomputeCache(s.env.KV, next); err != nil {
		s.env.Logger.WithError(err).Warn("failed to rewrite cached session fields")
	}
	s.env.Store.SetSession(next)
}

func (s *profileScreen) View() string {
	st := s.env.styles
	switch s.mode {
	case profileEdit:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Subtitle.Render("Edit profile"), s.form.View(st))
	case profilePassword:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Subtitle.Render("Change password"), s.form.View(st))
	}

	u := s.details.user
	if u == nil {
		return s.header()
	}
	row := func(label, value string) string {
		if value == "" {
			value = st.Muted.Render("-")
		}
		return st.Label.Render(label) + value
	}

	role := u.TeamRole
	if role == "" {
		role = u.Role
	}
	rows := []string{
		row("Username", u.Username),
		row("Full name", u.FullName),
		row("Email", u.Email),
		row("Phone", u.Phone),
		row("Address", u.Address),
		row("Account", accountLabel(u)),
		row("Role", role),
	}

	company, nit := u.CompanyName, u.NIT
	if c := s.details.company; c != nil {
		company, nit = c.CompanyName, c.NIT
		if company == "" {
			company = "No name"
		}
		if nit == "" {
			nit = "No NIT"
		}
	}
	if company != "" || nit != "" {
		rows = append(rows, row("Company", company), row("NIT", nit))
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Border.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func accountLabel(u *api.User) string {
	if u.Role == string(session.RoleTeamMember) {
		return "Team member"
	}
	if u.AccountType == "" {
		return "Individual"
	}
	return u.AccountType
}
