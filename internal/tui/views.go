package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/nav"
)

// View implements tea.Model.
func (m App) View() string {
	if m.quitting {
		return ""
	}
	if m.ad.visible {
		return m.renderAd()
	}

	st := m.env.styles
	var body string
	switch {
	case m.screen == nil:
		body = m.spinner.View() + " " + st.Muted.Render("Loading session...")
	case m.inbox != nil:
		body = m.inbox.View()
	default:
		body = m.screen.View()
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTopbar(),
		body,
		m.renderStatus(),
		m.renderHelpLine(),
	)

	links := nav.Links(m.env.authz())
	if len(links) == 0 {
		return main
	}
	sidebar := nav.Render(links, m.path, m.navStyle)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, lipgloss.NewStyle().PaddingLeft(2).Render(main))
}

// renderTopbar shows who is signed in and the unread badge.
func (m App) renderTopbar() string {
	st := m.env.styles
	s := m.env.session()
	if s == nil {
		return st.Muted.Render("Not signed in")
	}

	parts := []string{st.Status.Render(s.DisplayName())}
	if s.CompanyName != "" {
		parts = append(parts, st.Muted.Render(s.CompanyName))
	}
	if m.unread > 0 {
		parts = append(parts, st.Badge.Render(fmt.Sprintf("%d new", m.unread)))
	}
	return strings.Join(parts, "  ") + "\n"
}

// renderStatus renders the spinner while the screen is busy and the
// current toast.
func (m App) renderStatus() string {
	st := m.env.styles
	var parts []string
	busy := m.screen != nil && m.screen.Busy()
	if m.inbox != nil {
		busy = m.inbox.Busy()
	}
	if busy {
		parts = append(parts, m.spinner.View()+" "+st.Muted.Render("Working..."))
	}
	if m.toast.text != "" {
		switch m.toast.kind {
		case toastSuccess:
			parts = append(parts, st.Success.Render("✓ ")+m.toast.text)
		case toastWarning:
			parts = append(parts, st.Warning.Render("! ")+m.toast.text)
		case toastError:
			parts = append(parts, st.Error.Render("✗ ")+m.toast.text)
		default:
			parts = append(parts, st.Status.Render("• ")+m.toast.text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, "   ")
}

// renderHelpLine renders the global bindings followed by the screen's own.
func (m App) renderHelpLine() string {
	var screenHelp string
	switch {
	case m.inbox != nil:
		screenHelp = m.help.View(screenKeys(m.inbox.Keys()))
	case m.screen != nil:
		if ks := m.screen.Keys(); len(ks) > 0 {
			screenHelp = m.help.View(screenKeys(ks))
		}
	}
	global := m.help.View(m.keys)
	if screenHelp == "" {
		return m.env.styles.Help.Render(global)
	}
	return m.env.styles.Help.Render(screenHelp + "\n" + global)
}

// renderAd renders the ad modal centered on screen.
func (m App) renderAd() string {
	st := m.env.styles
	hint := st.Muted.Render("You can close this in a few seconds")
	if m.ad.closable {
		hint = st.Muted.Render("esc / enter: close")
	}
	modal := st.Modal.Render(lipgloss.JoinVertical(lipgloss.Center,
		st.Title.Render("ProductTrack"),
		m.ad.text,
		"",
		hint,
	))
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
