package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/authz"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/session/sessiontest"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Secret#2024", true},
		{"short1A!", true},
		{"Sh1!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigitsHere!", false},
		{"NoSymbols123", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

type backend struct {
	t          *testing.T
	loginToken string
	loginCode  int
	updates    []map[string]any
}

func (b *backend) handler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/auth/login":
		if b.loginCode != 0 {
			w.WriteHeader(b.loginCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"token": b.loginToken, "user": map[string]any{"idUsuario": 2}})
	case r.Method == http.MethodPut && r.URL.Path == "/usuarios/2":
		var body map[string]any
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		b.updates = append(b.updates, body)
		_, _ = w.Write([]byte(`{"message":"Perfil actualizado"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T, b *backend) (*api.Client, *session.Store, keystore.Store) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	t.Cleanup(srv.Close)

	kv := keystore.NewMemoryStore()
	store := session.NewStore(kv, session.NewDecoder(sessiontest.Secret), log.Discard())
	store.Initialize(context.Background())

	client := api.NewClient(srv.URL, store)
	client.Logger = log.Discard()
	return client, store, kv
}

func TestSignIn(t *testing.T) {
	b := &backend{t: t, loginToken: sessiontest.Token(t, sessiontest.Individual())}
	client, store, kv := setup(t, b)

	s, err := SignIn(context.Background(), client, store, "ana@mail.test", "Secret#2024")
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.UserID)
	assert.True(t, authz.IsIndividual(store.Session()))

	token, ok := kv.Get(keystore.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, b.loginToken, token)
}

func TestSignInBadCredentials(t *testing.T) {
	b := &backend{t: t, loginCode: http.StatusUnauthorized}
	client, store, _ := setup(t, b)

	_, err := SignIn(context.Background(), client, store, "ana@mail.test", "nope")
	require.Error(t, err)
	assert.Nil(t, store.Session())
}

func pendingMember() *session.Session {
	s := sessiontest.TeamMember(session.TeamRoleEditor)
	s.ProfileComplete = true
	return s
}

func TestCompleteProfileSignsInAgain(t *testing.T) {
	done := sessiontest.TeamMember(session.TeamRoleEditor)
	b := &backend{t: t, loginToken: sessiontest.Token(t, done)}
	client, store, kv := setup(t, b)
	_, err := store.Login(sessiontest.Token(t, pendingMember()))
	require.NoError(t, err)
	require.True(t, authz.ProfileSetupPending(store.Session()))

	msg, err := CompleteProfile(context.Background(), client, store, ProfileDetails{
		Phone:    "3001234567",
		Password: "Secret#2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "Perfil actualizado", msg)

	require.Len(t, b.updates, 1)
	assert.Equal(t, false, b.updates[0]["perfilCompleto"])
	assert.Equal(t, "Secret#2024", b.updates[0]["password"])
	assert.Equal(t, "3001234567", b.updates[0]["telefono"])

	assert.False(t, authz.ProfileSetupPending(store.Session()))
	token, _ := kv.Get(keystore.KeyToken)
	assert.Equal(t, b.loginToken, token)
}

func TestCompleteProfileSignsOutWhenReloginFails(t *testing.T) {
	b := &backend{t: t, loginCode: http.StatusInternalServerError}
	client, store, kv := setup(t, b)
	_, err := store.Login(sessiontest.Token(t, pendingMember()))
	require.NoError(t, err)

	_, err = CompleteProfile(context.Background(), client, store, ProfileDetails{Username: "maria", Password: "Secret#2024"})
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeSignInAgain))

	require.Len(t, b.updates, 1, "the profile itself was saved")
	assert.Nil(t, store.Session(), "no session is built without a fresh token")
	_, ok := kv.Get(keystore.KeyToken)
	assert.False(t, ok)
}

func TestApplyProfileRejectsBadToken(t *testing.T) {
	b := &backend{t: t}
	_, store, kv := setup(t, b)
	_, err := store.Login(sessiontest.Token(t, pendingMember()))
	require.NoError(t, err)

	err = ApplyProfile(context.Background(), store, ProfileResult{Token: "not-a-token"})
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeSignInAgain))
	assert.Nil(t, store.Session())
	_, ok := kv.Get(keystore.KeyToken)
	assert.False(t, ok)
}

func TestCompleteProfileValidation(t *testing.T) {
	b := &backend{t: t}
	client, store, _ := setup(t, b)

	_, err := CompleteProfile(context.Background(), client, store, ProfileDetails{Password: "Secret#2024"})
	assert.Error(t, err, "no session")

	_, err = store.Login(sessiontest.Token(t, pendingMember()))
	require.NoError(t, err)

	_, err = CompleteProfile(context.Background(), client, store, ProfileDetails{})
	assert.Error(t, err)
	_, err = CompleteProfile(context.Background(), client, store, ProfileDetails{Password: "weak"})
	assert.Error(t, err)
	assert.Empty(t, b.updates)
}
