package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/session"
)

// formScreen is a screen made of a single form.
type formScreen struct {
	base
	form *form
}

func (s *formScreen) Init() tea.Cmd   { return s.form.Focus() }
func (s *formScreen) Capturing() bool { return true }

// submit feeds msg to the form and reports whether it was submitted.
func (s *formScreen) submit(msg tea.Msg) (bool, tea.Cmd) {
	if s.loading {
		return false, nil
	}
	return s.form.Update(msg)
}

// link handles the ctrl shortcuts that leave a public page.
func link(msg tea.Msg, links map[string]string) (tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	if p, ok := links[km.String()]; ok {
		return navigate(p), true
	}
	return nil, false
}

type loginScreen struct{ formScreen }

func newLoginScreen(b base) *loginScreen {
	return &loginScreen{formScreen{base: b, form: newForm("sign in",
		textField("Email", "you@example.com", true).withValidator(looksLikeEmail),
		secretField("Password", true),
	)}}
}

var loginLinks = map[string]string{
	"ctrl+r": guard.PathRegister,
	"ctrl+p": guard.PathRecoverPassword,
}

func (s *loginScreen) Keys() []key.Binding {
	return []key.Binding{binding("ctrl+r", "create account"), binding("ctrl+p", "forgot password")}
}

func (s *loginScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		s.loading = false
		if r.err != nil {
			s.form.Fail(api.Message(r.err))
			return nil
		}
		resp := r.value.(*api.LoginResponse)
		sess, err := s.env.Store.Login(resp.Token)
		if err != nil {
			s.form.Fail(api.Message(err))
			return nil
		}
		return tea.Batch(notice(toastSuccess, "Welcome, "+sess.DisplayName()), navigate(guard.PathRoot))
	}
	if cmd, ok := link(msg, loginLinks); ok {
		return cmd
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}
	email, password := s.form.Value(0), s.form.Value(1)
	client := s.env.API
	return s.run("login", func(ctx context.Context) (any, error) {
		return client.Login(ctx, email, password)
	})
}

func (s *loginScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		s.env.styles.Subtitle.Render("Sign in to manage your inventory"),
		s.form.View(s.env.styles),
	)
}

const (
	accountIndividual = "Individual"
	accountBusiness   = "Business"
)

type registerScreen struct{ formScreen }

const (
	regAccountType = iota
	regUsername
	regFullName
	regEmail
	regPhone
	regAddress
	regCompany
	regNIT
	regPassword
	regConfirm
	regTerms
)

func newRegisterScreen(b base) *registerScreen {
	return &registerScreen{formScreen{base: b, form: newForm("create account",
		choiceField("Account type", accountIndividual, accountBusiness),
		textField("Username", "", true),
		textField("Full name", "", true),
		textField("Email", "you@example.com", true).withValidator(looksLikeEmail),
		textField("Phone", "", false),
		textField("Address", "", false),
		textField("Company name", "business accounts", false),
		textField("NIT", "business accounts", false),
		secretField("Password", true).withValidator(account.ValidatePassword),
		secretField("Confirm password", true),
		choiceField("Accept terms", "No", "Yes"),
	)}}
}

var registerLinks = map[string]string{
	"ctrl+l": guard.PathLogin,
	"ctrl+t": guard.PathTerms,
	"ctrl+o": guard.PathPrivacy,
}

func (s *registerScreen) Keys() []key.Binding {
	return []key.Binding{binding("ctrl+l", "sign in"), binding("ctrl+t", "terms"), binding("ctrl+o", "privacy")}
}

func (s *registerScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		s.loading = false
		if r.err != nil {
			s.form.Fail(api.Message(r.err))
			return nil
		}
		return tea.Batch(notice(toastSuccess, "Account created. You can sign in now."), navigate(guard.PathLogin))
	}
	if cmd, ok := link(msg, registerLinks); ok {
		return cmd
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}

	f := s.form
	business := f.Value(regAccountType) == accountBusiness
	switch {
	case f.Value(regPassword) != f.Value(regConfirm):
		f.Fail("Passwords do not match")
		return nil
	case business && (f.Value(regCompany) == "" || f.Value(regNIT) == ""):
		f.Fail("Company name and NIT are required for business accounts")
		return nil
	case f.Value(regTerms) != "Yes":
		f.Fail("You must accept the terms of service and privacy policy")
		return nil
	}

	reg := api.Registration{
		Username:    f.Value(regUsername),
		Email:       f.Value(regEmail),
		Password:    f.Value(regPassword),
		FullName:    f.Value(regFullName),
		Phone:       f.Value(regPhone),
		Address:     f.Value(regAddress),
		AccountType: string(session.AccountIndividual),
	}
	if business {
		reg.AccountType = string(session.AccountBusiness)
		reg.CompanyName = f.Value(regCompany)
		reg.NIT = f.Value(regNIT)
	}
	client := s.env.API
	return s.run("register", func(ctx context.Context) (any, error) {
		return nil, client.Register(ctx, reg)
	})
}

func (s *registerScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		s.env.styles.Subtitle.Render("Create your ProductTrack account"),
		s.form.View(s.env.styles),
	)
}

type recoverScreen struct{ formScreen }

func newRecoverScreen(b base) *recoverScreen {
	return &recoverScreen{formScreen{base: b, form: newForm("send code",
		textField("Email", "you@example.com", true).withValidator(looksLikeEmail),
	)}}
}

var recoverLinks = map[string]string{
	"ctrl+l": guard.PathLogin,
	"ctrl+v": guard.PathVerifyCode,
}

func (s *recoverScreen) Keys() []key.Binding {
	return []key.Binding{binding("ctrl+l", "sign in"), binding("ctrl+v", "I have a code")}
}

func (s *recoverScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		s.loading = false
		if r.err != nil {
			return failed(r.err)
		}
		text, _ := r.value.(string)
		if text == "" {
			text = "We sent a verification code to your email"
		}
		return tea.Batch(notice(toastSuccess, text), navigate(guard.PathVerifyCode))
	}
	if cmd, ok := link(msg, recoverLinks); ok {
		return cmd
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}
	email := s.form.Value(0)
	client := s.env.API
	return s.run("reset", func(ctx context.Context) (any, error) {
		return client.RequestPasswordReset(ctx, email)
	})
}

func (s *recoverScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		s.env.styles.Subtitle.Render("Enter your email and we will send you a 6-digit code"),
		s.form.View(s.env.styles),
	)
}

type verifyScreen struct{ formScreen }

func newVerifyScreen(b base) *verifyScreen {
	return &verifyScreen{formScreen{base: b, form: newForm("reset password",
		textField("Code", "000000", true).withValidator(sixDigits),
		secretField("New password", true).withValidator(account.ValidatePassword),
		secretField("Confirm password", true),
	)}}
}

func sixDigits(s string) error {
	if len(s) != 6 || strings.Trim(s, "0123456789") != "" {
		return fmt.Errorf("enter the 6-digit code")
	}
	return nil
}

func (s *verifyScreen) Keys() []key.Binding {
	return []key.Binding{binding("ctrl+p", "request a new code")}
}

func (s *verifyScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		s.loading = false
		if r.err != nil {
			return failed(r.err)
		}
		text, _ := r.value.(string)
		if text == "" {
			text = "Password updated"
		}
		return tea.Batch(notice(toastSuccess, text), navigate(guard.PathLogin))
	}
	if cmd, ok := link(msg, map[string]string{"ctrl+p": guard.PathRecoverPassword}); ok {
		return cmd
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}
	if s.form.Value(1) != s.form.Value(2) {
		s.form.Fail("Passwords do not match")
		return nil
	}
	code, password := s.form.Value(0), s.form.Value(1)
	client := s.env.API
	return s.run("confirm", func(ctx context.Context) (any, error) {
		return client.ConfirmPasswordReset(ctx, code, password)
	})
}

func (s *verifyScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		s.env.styles.Subtitle.Render("Enter the code from your email and choose a new password"),
		s.form.View(s.env.styles),
	)
}

// completeProfileScreen is the only screen a team member sees until the
// first-login setup is done.
type completeProfileScreen struct{ formScreen }

func newCompleteProfileScreen(b base) *completeProfileScreen {
	return &completeProfileScreen{formScreen{base: b, form: newForm("save profile",
		textField("Username", "leave empty to keep", false),
		textField("Phone", "", false),
		textField("Address", "", false),
		secretField("New password", true).withValidator(account.ValidatePassword),
		secretField("Confirm password", true),
	)}}
}

func (s *completeProfileScreen) details() account.ProfileDetails {
	return account.ProfileDetails{
		Username: s.form.Value(0),
		Phone:    s.form.Value(1),
		Address:  s.form.Value(2),
		Password: s.form.Value(3),
	}
}

func (s *completeProfileScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		s.loading = false
		if r.err != nil {
			text := api.Message(r.err)
			if strings.Contains(text, "Unique constraint failed") || strings.Contains(text, "ya está en uso") {
				text = "That username is already taken"
			}
			s.form.Fail(text)
			return nil
		}
		res := r.value.(account.ProfileResult)
		if s.env.session() == nil {
			return navigate(guard.PathLogin)
		}
		if err := account.ApplyProfile(s.env.ctx, s.env.Store, res); err != nil {
			return tea.Batch(
				notice(toastWarning, "Profile saved. Sign in with your new password."),
				navigate(guard.PathLogin),
			)
		}
		text := res.Message
		if text == "" {
			text = "Profile completed"
		}
		return tea.Batch(notice(toastSuccess, text), navigate(guard.PathRoot))
	}

	submitted, cmd := s.submit(msg)
	if !submitted {
		return cmd
	}
	if s.form.Value(3) != s.form.Value(4) {
		s.form.Fail("Passwords do not match")
		return nil
	}
	sess := s.env.session()
	if sess == nil {
		return navigate(guard.PathLogin)
	}
	d := s.details()
	client := s.env.API
	return s.run("complete", func(ctx context.Context) (any, error) {
		return account.SubmitProfile(ctx, client, sess, d)
	})
}

func (s *completeProfileScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		s.env.styles.Subtitle.Render("Before you start, set your own password and contact details"),
		s.form.View(s.env.styles),
	)
}
