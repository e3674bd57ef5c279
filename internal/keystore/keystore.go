// Package keystore persists the client's small key-value state: the session
// token, the denormalized session fields written at login, and a few UI
// counters. Values are plain strings, the way the web client kept them.
package keystore

import (
	"sort"
	"sync"
)

// Keys written by the client.
const (
	KeyToken          = "token"
	KeyAccountType    = "tipoUsuario"
	KeySystemRole     = "rol"
	KeyUsername       = "username"
	KeyProfilePending = "perfilCompleto"
	KeyTeamRole       = "rolEquipo"
	KeyUserID         = "userId"
	KeyAdCount        = "adCount"
	KeyAdTimestamp    = "adTimestamp"
	KeyNotifyPrefs    = "preferenciasNotificaciones"
)

// SessionKeys are removed on logout.
var SessionKeys = []string{
	KeyToken,
	KeyAccountType,
	KeySystemRole,
	KeyUsername,
	KeyProfilePending,
	KeyTeamRole,
	KeyUserID,
}

// Store is a string key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes keys. Missing keys are ignored.
	Delete(keys ...string) error

	// Keys returns the stored keys in sorted order.
	Keys() []string
}

// MemoryStore keeps values in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.values)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
