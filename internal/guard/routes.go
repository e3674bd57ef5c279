package guard

import (
	"path"
	"sort"
	"strings"

	"github.com/producttrack/producttrack/internal/authz"
)

// Well-known paths.
const (
	PathRoot            = "/"
	PathLogin           = "/login"
	PathRegister        = "/register"
	PathTerms           = "/terminos-y-condiciones"
	PathPrivacy         = "/politica-de-privacidad"
	PathRecoverPassword = "/recuperar-clave"
	PathVerifyCode      = "/verificar-codigo"
	PathCompleteProfile = "/completar-perfil"

	PathHome      = "/home"
	PathProfile   = "/perfil"
	PathNutriScan = "/nutriscan"

	PathAudit          = "/auditoria"
	PathAuditUsers     = "/auditoria/usuarios"
	PathAuditTeam      = "/auditoria/equipo"
	PathAuditNutriScan = "/auditoria/nutriscan"
)

// Section-relative suffixes.
const (
	SuffixHome      = "/home"
	SuffixInventory = "/inventario"
	SuffixHistory   = "/historial"
	SuffixSettings  = "/configuracion"
	SuffixTeam      = "/equipo"
	SuffixReports   = "/reportes"
)

// Route is one navigable screen.
type Route struct {
	Path   string
	Title  string
	Public bool

	// Allow decides whether an active session may render the route.
	// Nil on public routes.
	Allow func(authz.Context) bool
}

func authenticated(c authz.Context) bool { return c.Authenticated }

func inSection(base string) func(authz.Context) bool {
	return func(c authz.Context) bool { return c.InSection(base) }
}

func both(a, b func(authz.Context) bool) func(authz.Context) bool {
	return func(c authz.Context) bool { return a(c) && b(c) }
}

var routes = buildRoutes()

func buildRoutes() map[string]Route {
	table := []Route{
		{Path: PathLogin, Title: "Login", Public: true},
		{Path: PathRegister, Title: "Register", Public: true},
		{Path: PathTerms, Title: "Terms of service", Public: true},
		{Path: PathPrivacy, Title: "Privacy policy", Public: true},
		{Path: PathRecoverPassword, Title: "Recover password", Public: true},
		{Path: PathVerifyCode, Title: "Verify code", Public: true},

		// The root and profile completion are resolved by state, not by predicate.
		{Path: PathRoot, Title: "Root"},
		{Path: PathCompleteProfile, Title: "Complete profile"},

		{Path: PathHome, Title: "Home", Allow: authenticated},
		{Path: PathProfile, Title: "Profile", Allow: authenticated},
		{Path: PathNutriScan, Title: "NutriScan", Allow: func(c authz.Context) bool { return c.NutriScan }},

		{Path: PathAudit, Title: "Audit", Allow: audit},
		{Path: PathAuditUsers, Title: "Audit: users", Allow: audit},
		{Path: PathAuditTeam, Title: "Audit: team", Allow: audit},
		{Path: PathAuditNutriScan, Title: "Audit: NutriScan", Allow: audit},
	}

	ind := inSection(authz.IndividualBase)
	biz := inSection(authz.BusinessBase)
	dev := inSection(authz.DeveloperBase)

	table = append(table,
		Route{Path: authz.IndividualBase + SuffixHome, Title: "Home", Allow: ind},
		Route{Path: authz.IndividualBase + SuffixInventory, Title: "Inventory", Allow: ind},
		Route{Path: authz.IndividualBase + SuffixHistory, Title: "History", Allow: ind},
		Route{Path: authz.IndividualBase + SuffixSettings, Title: "Notification settings", Allow: ind},

		Route{Path: authz.BusinessBase + SuffixHome, Title: "Home", Allow: biz},
		Route{Path: authz.BusinessBase + SuffixInventory, Title: "Inventory", Allow: biz},
		Route{Path: authz.BusinessBase + SuffixHistory, Title: "History", Allow: biz},
		Route{Path: authz.BusinessBase + SuffixSettings, Title: "Notification settings", Allow: biz},
		Route{Path: authz.BusinessBase + SuffixTeam, Title: "Team management",
			Allow: both(biz, func(c authz.Context) bool { return c.ManageTeam })},

		Route{Path: authz.DeveloperBase + SuffixHome, Title: "Home", Allow: dev},
		Route{Path: authz.DeveloperBase + SuffixReports, Title: "Reports",
			Allow: both(dev, func(c authz.Context) bool { return c.Reports })},
		Route{Path: authz.DeveloperBase + SuffixSettings, Title: "Notification settings", Allow: dev},
	)

	m := make(map[string]Route, len(table))
	for _, r := range table {
		m[r.Path] = r
	}
	return m
}

func audit(c authz.Context) bool { return c.Audit }

// Clean normalizes a requested path: leading slash, no trailing slash,
// no query or fragment.
func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return PathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Lookup finds the route for p after cleaning it.
func Lookup(p string) (Route, bool) {
	r, ok := routes[Clean(p)]
	return r, ok
}

// IsPublic reports whether p renders without a session.
func IsPublic(p string) bool {
	r, ok := Lookup(p)
	return ok && r.Public
}

// Routes returns the route table sorted by path.
func Routes() []Route {
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
