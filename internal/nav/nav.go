// Package nav builds the sidebar: the links the current session may follow.
// Links the session cannot use are omitted, never shown disabled.
package nav

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/guard"
)

// Link is one sidebar entry.
type Link struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Href  string `json:"href" yaml:"href"`
	Key   string `json:"key" yaml:"key"`
}

type candidate struct {
	id, label, key string
	href           func(authz.Context) string
	visible        func(authz.Context) bool
}

func section(suffix string) func(authz.Context) string {
	return func(c authz.Context) string { return c.BasePath + suffix }
}

func fixed(p string) func(authz.Context) string {
	return func(authz.Context) string { return p }
}

func signedIn(c authz.Context) bool { return c.Authenticated }

func notDeveloper(c authz.Context) bool { return c.Authenticated && !c.Developer }

// managesTeam also requires the business section, where the team page
// lives; a developer on a business account manages no team from here.
func managesTeam(c authz.Context) bool {
	return c.ManageTeam && c.InSection(authz.BusinessBase)
}

var candidates = []candidate{
	{"home", "Home", "1", section(guard.SuffixHome), signedIn},
	{"inventory", "Inventario", "2", section(guard.SuffixInventory), notDeveloper},
	{"reports", "Reportes", "3", fixed(authz.DeveloperBase + guard.SuffixReports), func(c authz.Context) bool { return c.Reports }},
	{"history", "Historial", "4", section(guard.SuffixHistory), notDeveloper},
	{"nutriscan", "NutriScan", "5", fixed(guard.PathNutriScan), func(c authz.Context) bool { return c.NutriScan }},
	{"team", "Equipo", "6", fixed(authz.BusinessBase + guard.SuffixTeam), managesTeam},
	{"audit", "Auditoría", "7", fixed(guard.PathAudit), func(c authz.Context) bool { return c.Audit }},
	{"settings", "Configuración", "8", section(guard.SuffixSettings), signedIn},
	{"profile", "Perfil", "9", fixed(guard.PathProfile), signedIn},
}

// Links returns the visible links for c in display order. A session still
// completing its profile sees none.
func Links(c authz.Context) []Link {
	if !c.Authenticated || c.ProfileSetupPending {
		return nil
	}
	var out []Link
	for _, cand := range candidates {
		if !cand.visible(c) {
			continue
		}
		out = append(out, Link{ID: cand.id, Label: cand.label, Href: cand.href(c), Key: cand.key})
	}
	return out
}

// Active reports whether current is the link's page or one below it.
func Active(l Link, current string) bool {
	current = guard.Clean(current)
	return current == l.Href || strings.HasPrefix(current, l.Href+"/")
}

// ByKey finds the visible link bound to a shortcut key.
func ByKey(links []Link, key string) (Link, bool) {
	for _, l := range links {
		if l.Key == key {
			return l, true
		}
	}
	return Link{}, false
}

// Styles for the rendered sidebar.
type Styles struct {
	Title  lipgloss.Style
	Item   lipgloss.Style
	Active lipgloss.Style
	Key    lipgloss.Style
	Frame  lipgloss.Style
}

// DefaultStyles matches the rest of the terminal UI.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1),
		Item:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1),
		Active: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		Key: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("241")).
			PaddingRight(1),
	}
}

// Render draws links as a vertical sidebar, highlighting the active one.
func Render(links []Link, current string, st Styles) string {
	rows := []string{st.Title.Render("ProductTrack")}
	for _, l := range links {
		label := st.Key.Render(l.Key) + " " + l.Label
		if Active(l, current) {
			rows = append(rows, st.Active.Render(label))
		} else {
			rows = append(rows, st.Item.Render(label))
		}
	}
	return st.Frame.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
