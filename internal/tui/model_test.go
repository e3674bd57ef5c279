package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producttrack/producttrack/internal/ads"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/notify"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/session/sessiontest"
)

type harness struct {
	t     *testing.T
	kv    *keystore.MemoryStore
	store *session.Store
	app   App
}

func newHarness(t *testing.T, start string, s *session.Session, withAds bool) *harness {
	t.Helper()
	kv := keystore.NewMemoryStore()
	if s != nil {
		require.NoError(t, kv.Set(keystore.KeyToken, sessiontest.Token(t, s)))
	}
	store := session.NewStore(kv, session.NewDecoder(sessiontest.Secret), log.Discard())
	svc := Services{
		Store:  store,
		API:    api.NewClient("http://127.0.0.1:1", store),
		KV:     kv,
		Logger: log.Discard(),
	}
	if withAds {
		now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		svc.Ads = ads.NewCounter(kv, func() time.Time { return now })
	}
	app := New(context.Background(), svc, start)
	t.Cleanup(app.unsubscribe)
	return &harness{t: t, kv: kv, store: store, app: app}
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	m, cmd := h.app.Update(msg)
	h.app = m.(App)
	return cmd
}

// ready finishes session loading the way Init's command would.
func (h *harness) ready() {
	h.store.Initialize(context.Background())
	h.update(sessionReadyMsg{})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProtectedStartWaitsForSession(t *testing.T) {
	h := newHarness(t, guard.PathProfile, sessiontest.Individual(), false)

	assert.Equal(t, guard.PathProfile, h.app.Pending())
	assert.Nil(t, h.app.screen)
	assert.Contains(t, h.app.View(), "Loading session")

	h.ready()
	assert.Equal(t, guard.PathProfile, h.app.Path())
	assert.Empty(t, h.app.Pending())
	assert.NotNil(t, h.app.screen)
}

func TestPublicStartRendersImmediately(t *testing.T) {
	h := newHarness(t, guard.PathLogin, nil, false)

	assert.Equal(t, guard.PathLogin, h.app.Path())
	assert.NotNil(t, h.app.screen)
}

func TestAnonymousIsSentToRegister(t *testing.T) {
	h := newHarness(t, "/app/individual/inventario", nil, false)
	h.ready()
	assert.Equal(t, guard.PathRegister, h.app.Path())
}

func TestRootLandsInSection(t *testing.T) {
	tests := []struct {
		name string
		sess *session.Session
		want string
	}{
		{"individual", sessiontest.Individual(), "/app/individual/home"},
		{"business owner", sessiontest.Owner(), "/app/empresarial/home"},
		{"developer", sessiontest.Developer(session.AccountIndividual), "/app/desarrollador/home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, guard.PathRoot, tt.sess, false)
			h.ready()
			assert.Equal(t, tt.want, h.app.Path())
		})
	}
}

func TestPendingProfileIsConfined(t *testing.T) {
	s := sessiontest.TeamMember(session.TeamRoleEditor)
	s.ProfileComplete = true
	h := newHarness(t, "/app/empresarial/inventario", s, false)
	h.ready()

	assert.Equal(t, guard.PathCompleteProfile, h.app.Path())
	assert.Nil(t, h.app.inbox)
}

func TestStaleResultIsDropped(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()
	path := h.app.Path()

	h.update(resultMsg{gen: h.store.Generation() + 1, path: path, err: api.ErrUnauthorized})

	assert.NotNil(t, h.store.Session(), "a result from another session must not end this one")
	assert.Equal(t, path, h.app.Path())
}

func TestUnauthorizedResultLogsOut(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(resultMsg{gen: h.store.Generation(), path: h.app.Path(), err: api.ErrUnauthorized})

	assert.Nil(t, h.store.Session())
	assert.Equal(t, guard.PathLogin, h.app.Path())
	_, ok := h.kv.Get(keystore.KeyToken)
	assert.False(t, ok)
	assert.Equal(t, 0, h.app.unread)
}

func TestResultForAnotherScreenIsDropped(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	assert.NotPanics(t, func() {
		h.update(resultMsg{gen: h.store.Generation(), path: "/app/individual/inventario", key: "products", value: 42})
	})
}

func TestResultFromEarlierVisitIsDropped(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(runes("2"))
	require.Equal(t, "/app/individual/inventario", h.app.Path())
	first := h.app.screenID
	h.update(runes("1"))
	h.update(runes("2"))
	require.Equal(t, "/app/individual/inventario", h.app.Path())
	require.NotEqual(t, first, h.app.screenID)

	inv := h.app.screen.(*inventoryScreen)
	h.update(resultMsg{gen: h.store.Generation(), path: h.app.Path(), screen: first, key: "products",
		value: []api.Product{{ID: 1, Name: "Leche"}}})
	assert.Empty(t, inv.products, "a late result from the first visit must not reach the second")

	h.update(resultMsg{gen: h.store.Generation(), path: h.app.Path(), screen: h.app.screenID, key: "products",
		value: []api.Product{{ID: 1, Name: "Leche"}}})
	assert.Len(t, inv.products, 1)
}

func TestLateInboxResultIsDropped(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(runes("n"))
	first := h.app.inbox.id
	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	h.update(runes("n"))
	require.NotNil(t, h.app.inbox)

	h.update(resultMsg{gen: h.store.Generation(), path: inboxPath, screen: first, key: "load", value: []notify.Notification{
		{ID: 7, Title: "Stock bajo", Type: notify.TypeLowStock},
	}})
	assert.Empty(t, h.app.inbox.items)
}

func TestDeveloperOnBusinessAccountHasNoTeamKey(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Developer(session.AccountBusiness), false)
	h.ready()
	require.Equal(t, "/app/desarrollador/home", h.app.Path())

	h.update(runes("6"))
	assert.Equal(t, "/app/desarrollador/home", h.app.Path())
}

func TestUnreadCountFromAppResult(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(resultMsg{gen: h.store.Generation(), key: "unread", value: []notify.Notification{
		{ID: 1, Read: false}, {ID: 2, Read: true}, {ID: 3, Read: false},
	}})
	assert.Equal(t, 2, h.app.unread)
}

func TestDigitNavigatesThroughGuard(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(runes("2"))
	assert.Equal(t, "/app/individual/inventario", h.app.Path())

	h.update(runes("6"))
	assert.Equal(t, "/app/individual/inventario", h.app.Path(), "team link is not shown to individuals")
}

func TestNavigateMessageRedirectsWhenNotAllowed(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(navigateMsg{path: guard.PathAudit})
	assert.Equal(t, "/app/individual/home", h.app.Path())
}

func TestLogoutKey(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Owner(), false)
	h.ready()

	h.update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Nil(t, h.store.Session())
	assert.Equal(t, guard.PathLogin, h.app.Path())
}

func TestSessionChangeRebuildsScreen(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()
	require.Equal(t, "/app/individual/home", h.app.Path())

	_, err := h.store.Login(sessiontest.Token(t, sessiontest.Owner()))
	require.NoError(t, err)
	h.update(sessionChangedMsg{session: h.store.Session()})

	assert.Equal(t, "/app/empresarial/home", h.app.Path())
	assert.Equal(t, h.store.Generation(), h.app.screenGen)
}

func TestSessionChangeKeepsCurrentScreen(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()
	before := h.app.screen

	h.update(sessionChangedMsg{session: h.store.Session()})
	assert.Same(t, before, h.app.screen)
}

func TestToastExpiresOnlyItsOwn(t *testing.T) {
	h := newHarness(t, guard.PathLogin, nil, false)

	h.update(toastMsg{text: "first", kind: toastInfo})
	first := h.app.toast.id
	h.update(toastMsg{text: "second", kind: toastSuccess})
	second := h.app.toast.id

	h.update(toastExpiredMsg{id: first})
	assert.Equal(t, "second", h.app.toast.text)

	h.update(toastExpiredMsg{id: second})
	assert.Empty(t, h.app.toast.text)
}

func TestAdBlocksKeysUntilClosable(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), true)
	h.ready()
	require.True(t, h.app.ad.visible)
	path := h.app.Path()

	h.update(runes("2"))
	assert.Equal(t, path, h.app.Path())

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, h.app.ad.visible, "ad cannot be closed before the delay")

	h.update(adClosableMsg{id: h.app.ad.id - 1})
	assert.False(t, h.app.ad.closable)

	h.update(adClosableMsg{id: h.app.ad.id})
	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.app.ad.visible)
}

func TestNoAdsWithoutSession(t *testing.T) {
	h := newHarness(t, guard.PathRoot, nil, true)
	h.ready()
	assert.False(t, h.app.ad.visible)
	assert.False(t, h.app.adTicking)
}

func TestInboxOverlay(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	h.update(runes("n"))
	require.NotNil(t, h.app.inbox)

	inboxID := h.app.inbox.id
	h.update(resultMsg{gen: h.store.Generation(), path: inboxPath, screen: inboxID, key: "load", value: []notify.Notification{
		{ID: 7, Title: "Stock bajo", Type: notify.TypeLowStock},
	}})
	require.Len(t, h.app.inbox.items, 1)

	h.update(resultMsg{gen: h.store.Generation(), path: inboxPath, screen: inboxID, key: "read", value: int64(7)})
	assert.True(t, h.app.inbox.items[0].Read)

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, h.app.inbox)
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, guard.PathRoot, sessiontest.Individual(), false)
	h.ready()

	cmd := h.update(runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, h.app.quitting)
	assert.Empty(t, h.app.View())
}
