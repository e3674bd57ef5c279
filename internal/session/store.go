package session

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/producttrack/producttrack/internal/keystore"
	"github.com/producttrack/producttrack/internal/log"
)

// Store is the single holder of the current session.
//
// It starts in the loading state; Initialize resolves it exactly once.
// Every change bumps Generation so that work started under an older session
// can recognize itself as stale.
type Store struct {
	kv      keystore.Store
	decoder *Decoder
	logger  *log.Logger

	mu          sync.RWMutex
	session     *Session
	fingerprint string
	generation  uint64
	loading     bool
	subs        map[int]func(*Session)
	nextSub     int

	initOnce sync.Once
	ready    chan struct{}
}

// NewStore creates a store reading the token from kv.
func NewStore(kv keystore.Store, decoder *Decoder, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{
		kv:      kv,
		decoder: decoder,
		logger:  logger,
		loading: true,
		subs:    make(map[int]func(*Session)),
		ready:   make(chan struct{}),
	}
}

// Initialize decodes the persisted token, if any. Decode failures are
// logged and leave the session absent. It never fails, and only the first
// call has any effect. Subscribers are always notified, since leaving the
// loading state is itself a change.
func (st *Store) Initialize(ctx context.Context) {
	st.initOnce.Do(func() {
		var next *Session
		if token, ok := st.kv.Get(keystore.KeyToken); ok && token != "" {
			s, err := st.decoder.Decode(token)
			if err != nil {
				st.logger.WithError(err).WarnContext(ctx, "persisted token could not be decoded; continuing anonymous")
			} else {
				next = s
			}
		}

		st.mu.Lock()
		st.loading = false
		st.replaceLocked(next)
		st.mu.Unlock()
		close(st.ready)

		st.logger.DebugContext(ctx, "session initialized", "authenticated", next != nil)
		st.notify(next)
	})
}

// Wait blocks until Initialize has completed or ctx is done.
func (st *Store) Wait(ctx context.Context) error {
	select {
	case <-st.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loading reports whether Initialize has not yet completed.
func (st *Store) Loading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}

// Session returns a copy of the current session, or nil when anonymous.
func (st *Store) Session() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.session.Clone()
}

// SetSession replaces the session. It does not touch persisted storage.
func (st *Store) SetSession(s *Session) {
	st.mu.Lock()
	changed := st.replaceLocked(s)
	st.mu.Unlock()

	if changed {
		st.notify(s)
	}
}

// Refresh re-decodes the persisted token. A missing token or a decode
// failure leaves the current session untouched.
func (st *Store) Refresh(ctx context.Context) {
	token, ok := st.kv.Get(keystore.KeyToken)
	if !ok || token == "" {
		st.logger.DebugContext(ctx, "refresh skipped: no persisted token")
		return
	}

	s, err := st.decoder.Decode(token)
	if err != nil {
		st.logger.WithError(err).WarnContext(ctx, "refresh failed; keeping current session")
		return
	}

	if err := RecomputeCache(st.kv, s); err != nil {
		st.logger.WithError(err).WarnContext(ctx, "failed to rewrite cached session fields")
	}
	st.SetSession(s)
}

// Login persists token, decodes it and makes it the current session.
// Unlike Initialize and Refresh, a bad token is reported to the caller.
func (st *Store) Login(token string) (*Session, error) {
	s, err := st.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	if err := st.kv.Set(keystore.KeyToken, s.token); err != nil {
		return nil, err
	}
	if err := RecomputeCache(st.kv, s); err != nil {
		st.logger.WithError(err).Warn("failed to write cached session fields")
	}
	st.SetSession(s)
	return s.Clone(), nil
}

// Logout clears the persisted session keys and the in-memory session. The
// in-memory session is cleared even if storage fails.
func (st *Store) Logout() error {
	err := st.kv.Delete(keystore.SessionKeys...)
	st.SetSession(nil)
	return err
}

// Token returns the persisted token.
func (st *Store) Token() string {
	token, _ := st.kv.Get(keystore.KeyToken)
	return token
}

// Generation increments on every session change.
func (st *Store) Generation() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.generation
}

// Fingerprint is a BLAKE3 digest identifying the current session, or ""
// when anonymous. It never exposes the token itself.
func (st *Store) Fingerprint() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.fingerprint
}

// Subscribe registers fn to be called after every session change with the
// new session (nil on logout). The returned func unregisters it.
func (st *Store) Subscribe(fn func(*Session)) (unsubscribe func()) {
	st.mu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.subs, id)
			st.mu.Unlock()
		})
	}
}

// replaceLocked installs s and reports whether anything changed.
func (st *Store) replaceLocked(s *Session) bool {
	fp := fingerprint(s)
	if fp == st.fingerprint && Equal(s, st.session) {
		return false
	}
	st.session = s.Clone()
	st.fingerprint = fp
	st.generation++
	return true
}

func (st *Store) notify(s *Session) {
	st.mu.RLock()
	ids := make([]int, 0, len(st.subs))
	for id := range st.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*Session), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, st.subs[id])
	}
	st.mu.RUnlock()

	for _, fn := range fns {
		fn(s.Clone())
	}
}

func fingerprint(s *Session) string {
	if s == nil {
		return ""
	}
	h := blake3.New()
	if s.token != "" {
		_, _ = h.Write([]byte(s.token))
	} else {
		// Sessions set directly carry no token; digest the identity instead.
		_, _ = fmt.Fprintf(h, "%d|%s|%s|%s|%s", s.UserID, s.Email, s.AccountType, s.SystemRole, s.TeamRole)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
