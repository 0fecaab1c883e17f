// Package secrets persists delegated users' refresh tokens in the OS keyring,
// with a file backend fallback for headless deployments.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/99designs/keyring"
)

const serviceName = "roombook"

// Token is the stored credential for one delegated user.
type Token struct {
	Email        string    `json:"email"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps a keyring for token persistence.
type Store struct {
	ring keyring.Keyring
}

// OpenDefault opens the default keyring. On platforms without a native
// keychain this falls back to an encrypted file under the user config dir.
func OpenDefault() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		FileDir:     filepath.Join(dir, serviceName, "keyring"),
		FilePasswordFunc: func(string) (string, error) {
			return serviceName, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewWithKeyring builds a Store over an explicit keyring. Used in tests.
func NewWithKeyring(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func tokenKey(email string) string {
	return "token:" + email
}

// SetToken stores or replaces the token for email.
func (s *Store) SetToken(email string, tok Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.ring.Set(keyring.Item{Key: tokenKey(email), Data: b, Label: serviceName + " " + email}); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// GetToken retrieves the stored token for email. Returns
// keyring.ErrKeyNotFound if none exists.
func (s *Store) GetToken(email string) (Token, error) {
	item, err := s.ring.Get(tokenKey(email))
	if err != nil {
		return Token{}, err
	}

	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// DeleteToken removes the stored token for email. Missing tokens are not an
// error.
func (s *Store) DeleteToken(email string) error {
	err := s.ring.Remove(tokenKey(email))
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
