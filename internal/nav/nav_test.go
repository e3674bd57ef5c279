package nav_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/nav"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/session/sessiontest"
)

func ids(links []nav.Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}

func TestLinksPerSession(t *testing.T) {
	tests := []struct {
		name string
		s    *session.Session
		want []string
	}{
		{"anonymous", nil, nil},
		{"individual", sessiontest.Individual(),
			[]string{"home", "inventory", "history", "nutriscan", "settings", "profile"}},
		{"business owner", sessiontest.Owner(),
			[]string{"home", "inventory", "history", "team", "settings", "profile"}},
		{"team reader", sessiontest.TeamMember(session.TeamRoleReader),
			[]string{"home", "inventory", "history", "settings", "profile"}},
		{"admin individual", sessiontest.Admin(session.AccountIndividual),
			[]string{"home", "inventory", "history", "nutriscan", "audit", "settings", "profile"}},
		{"developer", sessiontest.Developer(session.AccountBusiness),
			[]string{"home", "reports", "audit", "settings", "profile"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nav.Links(authz.Evaluate(tt.s))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestScenarioA_TeamLinkShown(t *testing.T) {
	s := &session.Session{UserID: 1, SystemRole: session.RoleUser, AccountType: session.AccountBusiness}
	links := nav.Links(authz.Evaluate(s))

	var team *nav.Link
	for i := range links {
		if links[i].ID == "team" {
			team = &links[i]
		}
	}
	require.NotNil(t, team, "business owner must see team management")
	assert.Equal(t, "/app/empresarial/equipo", team.Href)
}

func TestPendingProfileShowsNoLinks(t *testing.T) {
	s := sessiontest.TeamMember(session.TeamRoleEditor)
	s.ProfileComplete = true
	assert.Empty(t, nav.Links(authz.Evaluate(s)))
}

func TestEveryVisibleLinkRenders(t *testing.T) {
	sessions := []*session.Session{
		sessiontest.Individual(),
		sessiontest.Owner(),
		sessiontest.TeamMember(session.TeamRoleReader),
		sessiontest.TeamMember(session.TeamRoleEditor),
		sessiontest.Admin(session.AccountIndividual),
		sessiontest.Admin(session.AccountBusiness),
		sessiontest.Developer(session.AccountIndividual),
		sessiontest.Developer(session.AccountBusiness),
	}

	for _, s := range sessions {
		c := authz.Evaluate(s)
		for _, l := range nav.Links(c) {
			d := guard.Resolve(guard.AuthenticatedActive, c, l.Href)
			assert.Equal(t, guard.Render, d.Action, "%s/%s link %s", s.AccountType, s.SystemRole, l.Href)
		}
	}
}

func TestActive(t *testing.T) {
	l := nav.Link{ID: "audit", Href: "/auditoria"}

	assert.True(t, nav.Active(l, "/auditoria"))
	assert.True(t, nav.Active(l, "/auditoria/"))
	assert.True(t, nav.Active(l, "/auditoria/usuarios"))
	assert.False(t, nav.Active(l, "/auditoriax"))
	assert.False(t, nav.Active(l, "/home"))
}

func TestByKey(t *testing.T) {
	links := nav.Links(authz.Evaluate(sessiontest.Owner()))

	l, ok := nav.ByKey(links, "6")
	require.True(t, ok)
	assert.Equal(t, "team", l.ID)

	_, ok = nav.ByKey(links, "5")
	assert.False(t, ok, "nutriscan key is not bound for a business owner")
}

func TestRender(t *testing.T) {
	links := nav.Links(authz.Evaluate(sessiontest.Individual()))
	out := nav.Render(links, "/app/individual/inventario", nav.DefaultStyles())

	for _, l := range links {
		assert.True(t, strings.Contains(out, l.Label), l.Label)
	}
	assert.NotContains(t, out, "Equipo")
	assert.NotContains(t, out, "Auditoría")
}
