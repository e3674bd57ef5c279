package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/producttrack/producttrack/internal/errors"
)

// KeySealSalt holds the PBKDF2 salt of a sealed store. It survives logout.
const KeySealSalt = "sealSalt"

const (
	sealPrefix     = "sealed:"
	sealIterations = 100_000
	sealSaltSize   = 16
)

// SealedStore encrypts the values of selected keys with AES-GCM before they
// reach the underlying store. Other keys pass through unchanged.
//
// A sealed value that cannot be opened, because the passphrase changed or
// the value was tampered with, reads as absent. A plain value under a
// sealed key is returned as is and sealed on its next write.
type SealedStore struct {
	inner Store
	aead  cipher.AEAD
	keys  map[string]bool
}

// Seal wraps inner so that keys are stored encrypted under a key derived
// from passphrase. The salt is created on first use and kept in inner.
func Seal(inner Store, passphrase string, keys ...string) (*SealedStore, error) {
	if passphrase == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "an empty passphrase cannot seal the state file")
	}

	salt, err := loadSalt(inner)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(pbkdf2.Key([]byte(passphrase), salt, sealIterations, 32, sha256.New))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to derive state key", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to derive state key", err)
	}

	s := &SealedStore{inner: inner, aead: aead, keys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		s.keys[k] = true
	}
	return s, nil
}

func loadSalt(inner Store) ([]byte, error) {
	if v, ok := inner.Get(KeySealSalt); ok {
		if salt, err := base64.StdEncoding.DecodeString(v); err == nil && len(salt) == sealSaltSize {
			return salt, nil
		}
	}
	salt := make([]byte, sealSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to generate salt", err)
	}
	if err := inner.Set(KeySealSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *SealedStore) Get(key string) (string, bool) {
	v, ok := s.inner.Get(key)
	if !ok || !s.keys[key] || !strings.HasPrefix(v, sealPrefix) {
		return v, ok
	}
	plain, err := s.open(strings.TrimPrefix(v, sealPrefix))
	if err != nil {
		return "", false
	}
	return plain, true
}

func (s *SealedStore) Set(key, value string) error {
	if !s.keys[key] {
		return s.inner.Set(key, value)
	}
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(key, sealPrefix+sealed)
}

func (s *SealedStore) Delete(keys ...string) error {
	return s.inner.Delete(keys...)
}

func (s *SealedStore) Keys() []string {
	return s.inner.Keys()
}

func (s *SealedStore) seal(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to generate nonce", err)
	}
	return base64.StdEncoding.EncodeToString(s.aead.Seal(nonce, nonce, []byte(plain), nil)), nil
}

func (s *SealedStore) open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", errors.New(errors.ErrCodeFileUnmarshal, "sealed value too short")
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
