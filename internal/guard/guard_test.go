package guard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/session/sessiontest"
)

var publicPaths = []string{
	guard.PathLogin, guard.PathRegister, guard.PathTerms,
	guard.PathPrivacy, guard.PathRecoverPassword, guard.PathVerifyCode,
}

func protectedPaths() []string {
	var out []string
	for _, r := range guard.Routes() {
		if !r.Public {
			out = append(out, r.Path)
		}
	}
	return append(out, "/no/such/page", "/app/individual/unknown")
}

func allSessions() map[string]*session.Session {
	pendingMember := sessiontest.TeamMember(session.TeamRoleReader)
	pendingMember.ProfileComplete = true
	return map[string]*session.Session{
		"individual":       sessiontest.Individual(),
		"owner":            sessiontest.Owner(),
		"reader":           sessiontest.TeamMember(session.TeamRoleReader),
		"editor":           sessiontest.TeamMember(session.TeamRoleEditor),
		"pending member":   pendingMember,
		"admin individual": sessiontest.Admin(session.AccountIndividual),
		"admin business":   sessiontest.Admin(session.AccountBusiness),
		"developer":        sessiontest.Developer(session.AccountIndividual),
	}
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, guard.Unknown, guard.StateOf(true, authz.Evaluate(sessiontest.Owner())))
	assert.Equal(t, guard.Anonymous, guard.StateOf(false, authz.Evaluate(nil)))
	assert.Equal(t, guard.AuthenticatedActive, guard.StateOf(false, authz.Evaluate(sessiontest.Owner())))

	pending := sessiontest.TeamMember(session.TeamRoleEditor)
	pending.ProfileComplete = true
	assert.Equal(t, guard.AuthenticatedIncomplete, guard.StateOf(false, authz.Evaluate(pending)))

	owner := sessiontest.Owner()
	owner.ProfileComplete = true
	assert.Equal(t, guard.AuthenticatedActive, guard.StateOf(false, authz.Evaluate(owner)),
		"only team members are held on profile completion")
}

func TestPublicRoutesAlwaysRender(t *testing.T) {
	states := []guard.State{guard.Unknown, guard.Anonymous, guard.AuthenticatedIncomplete, guard.AuthenticatedActive}
	for _, p := range publicPaths {
		for _, st := range states {
			d := guard.Resolve(st, authz.Evaluate(sessiontest.Owner()), p)
			assert.Equal(t, guard.Render, d.Action, "%s in %s", p, st)
			assert.True(t, guard.IsPublic(p))
		}
	}
}

func TestUnknownWaits(t *testing.T) {
	for _, p := range protectedPaths() {
		d := guard.Resolve(guard.Unknown, authz.Evaluate(nil), p)
		assert.Equal(t, guard.Wait, d.Action, p)
	}
}

func TestAnonymousAlwaysEndsAtRegister(t *testing.T) {
	for _, p := range protectedPaths() {
		nav, err := guard.Follow(guard.Anonymous, authz.Evaluate(nil), p)
		require.NoError(t, err, p)
		assert.Equal(t, guard.Render, nav.Decision.Action, p)
		assert.Equal(t, guard.PathRegister, nav.Decision.Target, p)
	}
}

func TestAnonymousKnownProtectedRedirectsDirectly(t *testing.T) {
	for _, r := range guard.Routes() {
		if r.Public || r.Path == guard.PathRoot {
			continue
		}
		d := guard.Resolve(guard.Anonymous, authz.Evaluate(nil), r.Path)
		assert.Equal(t, guard.Redirect, d.Action, r.Path)
		assert.Equal(t, guard.PathRegister, d.Target, r.Path)
	}
}

func TestIncompleteTeamMemberHeldOnProfileCompletion(t *testing.T) {
	pending := sessiontest.TeamMember(session.TeamRoleEditor)
	pending.ProfileComplete = true
	c := authz.Evaluate(pending)

	for _, p := range protectedPaths() {
		nav, err := guard.Follow(guard.AuthenticatedIncomplete, c, p)
		require.NoError(t, err, p)
		assert.Equal(t, guard.Render, nav.Decision.Action, p)
		assert.Equal(t, guard.PathCompleteProfile, nav.Decision.Target, p)
	}
}

func TestActiveSessionNeverSeesProfileCompletion(t *testing.T) {
	c := authz.Evaluate(sessiontest.Owner())
	d := guard.Resolve(guard.AuthenticatedActive, c, guard.PathCompleteProfile)
	assert.Equal(t, guard.Redirect, d.Action)
	assert.Equal(t, "/app/empresarial/home", d.Target)
}

func TestRootRedirects(t *testing.T) {
	d := guard.Resolve(guard.Anonymous, authz.Evaluate(nil), "/")
	assert.Equal(t, guard.Redirect, d.Action)
	assert.Equal(t, guard.PathRegister, d.Target)

	c := authz.Evaluate(sessiontest.Developer(session.AccountBusiness))
	d = guard.Resolve(guard.AuthenticatedActive, c, "")
	assert.Equal(t, guard.Redirect, d.Action)
	assert.Equal(t, "/app/desarrollador/home", d.Target)
}

func TestActiveRoutePredicates(t *testing.T) {
	tests := []struct {
		name   string
		s      *session.Session
		path   string
		render bool
	}{
		{"owner team page", sessiontest.Owner(), "/app/empresarial/equipo", true},
		{"member team page", sessiontest.TeamMember(session.TeamRoleEditor), "/app/empresarial/equipo", false},
		{"member business inventory", sessiontest.TeamMember(session.TeamRoleReader), "/app/empresarial/inventario", true},
		{"individual in business section", sessiontest.Individual(), "/app/empresarial/inventario", false},
		{"owner in individual section", sessiontest.Owner(), "/app/individual/inventario", false},
		{"individual nutriscan", sessiontest.Individual(), "/nutriscan", true},
		{"owner nutriscan", sessiontest.Owner(), "/nutriscan", false},
		{"developer reports", sessiontest.Developer(session.AccountIndividual), "/app/desarrollador/reportes", true},
		{"admin reports", sessiontest.Admin(session.AccountIndividual), "/app/desarrollador/reportes", false},
		{"individual audit", sessiontest.Individual(), "/auditoria", false},
		{"developer audit users", sessiontest.Developer(session.AccountBusiness), "/auditoria/usuarios", true},
		{"home", sessiontest.Individual(), "/home", true},
		{"profile", sessiontest.TeamMember(session.TeamRoleReader), "/perfil/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := authz.Evaluate(tt.s)
			d := guard.Resolve(guard.AuthenticatedActive, c, tt.path)
			if tt.render {
				assert.Equal(t, guard.Render, d.Action, d.Reason)
				return
			}
			assert.Equal(t, guard.Redirect, d.Action)
			assert.Equal(t, c.Landing(), d.Target)
		})
	}
}

func TestScenarioC_AnonymousIndividualHome(t *testing.T) {
	st := session.NewStore(keystore.NewMemoryStore(), session.NewDecoder(nil), log.Discard())
	st.Initialize(context.Background())
	g := guard.New(st)

	d := g.Resolve("/app/individual/home")
	assert.Equal(t, guard.Redirect, d.Action)
	assert.Equal(t, "/register", d.Target)
}

func TestScenarioD_AdminAuditRenders(t *testing.T) {
	for _, at := range []session.AccountType{session.AccountIndividual, session.AccountBusiness} {
		st := session.NewStore(keystore.NewMemoryStore(), session.NewDecoder(nil), log.Discard())
		st.Initialize(context.Background())
		st.SetSession(&session.Session{UserID: 9, SystemRole: session.RoleAdmin, AccountType: at})

		d := guard.New(st).Resolve("/auditoria")
		assert.Equal(t, guard.Render, d.Action, string(at))
		assert.Equal(t, "/auditoria", d.Target)
	}
}

func TestGuardReevaluatesOnEveryNavigation(t *testing.T) {
	st := session.NewStore(keystore.NewMemoryStore(), session.NewDecoder(nil), log.Discard())
	g := guard.New(st)

	assert.Equal(t, guard.Unknown, g.State())
	assert.Equal(t, guard.Wait, g.Resolve("/home").Action)

	st.Initialize(context.Background())
	assert.Equal(t, guard.Anonymous, g.State())

	st.SetSession(sessiontest.Individual())
	assert.Equal(t, guard.Render, g.Resolve("/home").Action)
	assert.True(t, g.Context().NutriScan)

	st.SetSession(nil)
	assert.Equal(t, guard.Redirect, g.Resolve("/home").Action)
}

func TestNavigateTerminatesEverywhere(t *testing.T) {
	st := session.NewStore(keystore.NewMemoryStore(), session.NewDecoder(nil), log.Discard())
	st.Initialize(context.Background())
	g := guard.New(st)

	paths := append(protectedPaths(), publicPaths...)
	for name, s := range allSessions() {
		st.SetSession(s)
		for _, p := range paths {
			nav, err := g.Navigate(p)
			require.NoError(t, err, "%s -> %s", name, p)
			assert.Equal(t, guard.Render, nav.Decision.Action, "%s -> %s", name, p)
			assert.LessOrEqual(t, len(nav.Trail), guard.MaxHops+1)
			assert.Equal(t, "render", nav.Action)
		}
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "/", guard.Clean(""))
	assert.Equal(t, "/home", guard.Clean("home"))
	assert.Equal(t, "/home", guard.Clean("/home/"))
	assert.Equal(t, "/auditoria", guard.Clean("/auditoria?tab=1"))
	assert.Equal(t, "/perfil", guard.Clean("/app/../perfil"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "authenticated_incomplete", guard.AuthenticatedIncomplete.String())
	assert.Equal(t, "redirect", guard.Redirect.String())
}
