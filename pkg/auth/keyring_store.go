package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "discogscatalog"
	keyringPrefix  = "discogs_"
	// keyringDefault holds the username of the last stored account, since
	// keyrings cannot be enumerated portably
	keyringDefault = "default_account"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	return newKeyringStore(keyringService)
}

func newKeyringStore(service string) (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(service, testKey, "test"); err != nil {
		return nil, fmt.Errorf("%w: keyring: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(service, testKey)

	return &KeyringStore{service: service}, nil
}

// Store saves credentials to the system keychain and marks the account as
// the default
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := keyring.Set(k.service, keyringPrefix+account.Username, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	if err := keyring.Set(k.service, keyringDefault, account.Username); err != nil {
		return fmt.Errorf("failed to store default account: %w", err)
	}

	return nil
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(k.service, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// RetrieveDefault returns the account most recently stored in the keyring
func (k *KeyringStore) RetrieveDefault() (*Account, error) {
	username, err := keyring.Get(k.service, keyringDefault)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve default account: %w", err)
	}
	return k.Retrieve(username)
}

// List returns the default account only; go-keyring cannot enumerate keys
func (k *KeyringStore) List() ([]*Account, error) {
	account, err := k.RetrieveDefault()
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(k.service, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	if current, err := keyring.Get(k.service, keyringDefault); err == nil && current == username {
		_ = keyring.Delete(k.service, keyringDefault)
	}

	return nil
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(username string) bool {
	if username == "" {
		return false
	}

	_, err := keyring.Get(k.service, keyringPrefix+username)
	return err == nil
}
