package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Token is a stored OAuth token for one provider.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the token is past (or within a minute of) its expiry.
// Tokens without an expiry never expire locally.
func (t *Token) Expired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry.Add(-time.Minute))
}

// CredentialStore persists OAuth tokens per provider as JSON files under
// <root>/credentials with user-only permissions.
type CredentialStore struct {
	dir string
}

// NewCredentialStore creates a store rooted at the given state directory.
func NewCredentialStore(root string) *CredentialStore {
	return &CredentialStore{dir: filepath.Join(root, "credentials")}
}

func (s *CredentialStore) path(provider string) string {
	return filepath.Join(s.dir, provider+".json")
}

// Save writes the token for a provider, creating the credentials directory if needed.
func (s *CredentialStore) Save(provider string, token *Token) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}

	if err := os.WriteFile(s.path(provider), data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// Load reads the stored token for a provider.
// Returns [ErrNotAuthenticated] when no token has been saved.
func (s *CredentialStore) Load(provider string) (*Token, error) {
	data, err := os.ReadFile(s.path(provider))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no stored token for %s", ErrNotAuthenticated, provider)
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return &token, nil
}

// Valid returns the stored token for a provider, or [ErrAuthExpired] when it
// exists but is past its expiry and must be refreshed.
func (s *CredentialStore) Valid(provider string) (*Token, error) {
	token, err := s.Load(provider)
	if err != nil {
		return nil, err
	}
	if token.Expired() {
		return nil, fmt.Errorf("%w: run 'plx auth %s'", ErrAuthExpired, provider)
	}
	return token, nil
}

// Delete removes stored credentials for a provider.
func (s *CredentialStore) Delete(provider string) error {
	err := os.Remove(s.path(provider))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
