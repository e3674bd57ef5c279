package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/notify"
)

type homeScreen struct {
	base
	summary *api.StockSummary
	company *api.User
	scans   int
	err     string
}

func newHomeScreen(b base) *homeScreen {
	return &homeScreen{base: b}
}

func (s *homeScreen) Init() tea.Cmd { return s.load() }

func (s *homeScreen) Keys() []key.Binding {
	return []key.Binding{binding("r", "refresh")}
}

func (s *homeScreen) load() tea.Cmd {
	e := s.env
	c := e.authz()
	sess := e.session()
	if sess == nil {
		return nil
	}

	var cmds []tea.Cmd
	if c.Developer {
		cmds = append(cmds, s.run("scans", func(ctx context.Context) (any, error) {
			return e.API.ScanRecords(ctx)
		}))
	} else {
		accountType := string(sess.AccountType)
		cmds = append(cmds, s.run("products", func(ctx context.Context) (any, error) {
			return e.API.ListProducts(ctx, accountType)
		}))
	}
	if c.CompanyInfo && sess.CompanyID != nil {
		id := *sess.CompanyID
		cmds = append(cmds, s.run("company", func(ctx context.Context) (any, error) {
			return e.API.GetCompany(ctx, id)
		}))
	}
	return tea.Batch(cmds...)
}

func (s *homeScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			s.err = api.Message(msg.err)
			return nil
		}
		switch msg.key {
		case "products":
			sum := api.Summarize(msg.value.([]api.Product), notify.LowStockThreshold(s.env.authz()), time.Now())
			s.summary = &sum
		case "company":
			s.company = msg.value.(*api.User)
		case "scans":
			s.scans = len(msg.value.([]api.ScanRecord))
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			s.err = ""
			return s.load()
		}
	}
	return nil
}

func (s *homeScreen) View() string {
	st := s.env.styles
	sess := s.env.session()
	rows := []string{s.header()}
	if sess != nil {
		rows = append(rows, st.Subtitle.Render("Hello, "+sess.DisplayName()))
	}

	if s.env.authz().Developer {
		rows = append(rows,
			st.Label.Render("NutriScan analyses")+fmt.Sprintf("%d", s.scans),
			"",
			st.Muted.Render("Use Reportes to announce app updates to every user."),
		)
	}

	if s.summary != nil {
		sum := s.summary
		low := fmt.Sprintf("%d", sum.LowStock)
		if sum.LowStock > 0 {
			low = st.Warning.Render(low)
		}
		expired := fmt.Sprintf("%d", sum.Expired)
		if sum.Expired > 0 {
			expired = st.Error.Render(expired)
		}
		rows = append(rows, st.Border.Render(lipgloss.JoinVertical(lipgloss.Left,
			st.Label.Render("Products")+fmt.Sprintf("%d", sum.Total),
			st.Label.Render("Units in stock")+fmt.Sprintf("%d", sum.Units),
			st.Label.Render("Low stock")+low,
			st.Label.Render("Expired")+expired,
			st.Label.Render("Expiring in 7 days")+fmt.Sprintf("%d", sum.Expiring),
		)))
	}

	if s.company != nil {
		co := s.company
		name := co.CompanyName
		if name == "" {
			name = co.FullName
		}
		rows = append(rows, "", st.Status.Render("Company"),
			st.Label.Render("Name")+name,
			st.Label.Render("NIT")+co.NIT,
			st.Label.Render("Email")+co.Email,
			st.Label.Render("Phone")+co.Phone,
			st.Label.Render("Address")+co.Address,
		)
	}

	if s.err != "" {
		rows = append(rows, "", st.Error.Render(s.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
