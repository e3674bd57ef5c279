package keystore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealedStore_EncryptsSelectedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	fs, err := OpenFile(path)
	require.NoError(t, err)
	s, err := Seal(fs, "correct horse", KeyToken)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyToken, "eyJhbGciOi.token"))
	require.NoError(t, s.Set(KeyUsername, "ana"))

	v, ok := s.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "eyJhbGciOi.token", v)

	raw, _ := fs.Get(KeyToken)
	assert.True(t, strings.HasPrefix(raw, sealPrefix))
	assert.NotContains(t, raw, "eyJhbGciOi")
	plain, _ := fs.Get(KeyUsername)
	assert.Equal(t, "ana", plain)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "eyJhbGciOi.token")
}

func TestSealedStore_ReopenAndWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	fs, err := OpenFile(path)
	require.NoError(t, err)
	s, err := Seal(fs, "uno", KeyToken)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyToken, "secret-token"))

	fs2, err := OpenFile(path)
	require.NoError(t, err)
	same, err := Seal(fs2, "uno", KeyToken)
	require.NoError(t, err)
	v, ok := same.Get(KeyToken)
	require.True(t, ok, "salt is reused across opens")
	assert.Equal(t, "secret-token", v)

	other, err := Seal(fs2, "dos", KeyToken)
	require.NoError(t, err)
	_, ok = other.Get(KeyToken)
	assert.False(t, ok)
}

func TestSealedStore_PlainValueStillReadable(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Set(KeyToken, "legacy"))

	s, err := Seal(m, "pass", KeyToken)
	require.NoError(t, err)
	v, ok := s.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "legacy", v)

	require.NoError(t, s.Delete(SessionKeys...))
	_, ok = s.Get(KeyToken)
	assert.False(t, ok)
	_, ok = m.Get(KeySealSalt)
	assert.True(t, ok, "logout keeps the salt")
}

func TestSeal_EmptyPassphrase(t *testing.T) {
	_, err := Seal(NewMemoryStore(), "", KeyToken)
	assert.Error(t, err)
}
