package auth

import (
	"os"
	"time"
)

const (
	// TokenEnv names the variable holding a Discogs personal access token
	TokenEnv = "DISCOGS_AUTH_TOKEN"
	// UsernameEnv optionally names the account the environment token belongs to
	UsernameEnv = "DISCOGS_USERNAME"
)

// EnvironmentStore implements a read-only CredentialStore over environment
// variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The username
// argument is ignored unless DISCOGS_USERNAME is unset.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	token := os.Getenv(TokenEnv)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if envUser := os.Getenv(UsernameEnv); envUser != "" {
		username = envUser
	}
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the token variable is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token exists
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv(TokenEnv) != ""
}

// RetrieveDefault returns the environment account, if any
func (e *EnvironmentStore) RetrieveDefault() (*Account, error) {
	return e.Retrieve("")
}
