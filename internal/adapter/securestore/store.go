package securestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Store is an encrypted file-backed key-value store for long-lived
// credentials. It is the device-local stand-in for the platform keychain: the
// whole value map is sealed with XChaCha20-Poly1305 under a key derived from
// the configured device secret.
type Store struct {
	path string
	aead cipher.AEAD

	mu sync.Mutex
}

func New(path, secret string) (*Store, error) {
	if path == "" {
		return nil, errors.New("secure store path is required")
	}

	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}

	return &Store{
		path: path,
		aead: aead,
	}, nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores the value under key, overwriting any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secure store: %w", err)
	}

	nonceSize := chacha20poly1305.NonceSizeX
	if len(raw) < nonceSize {
		return nil, errors.New("secure store file is corrupted")
	}

	plain, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secure store: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("failed to decode secure store: %w", err)
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode secure store: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}

	sealed := s.aead.Seal(nonce, nonce, plain, nil)
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write secure store: %w", err)
	}
	return nil
}
