package auth

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Account is a Discogs user together with the personal access token used
// to call the API on their behalf
type Account struct {
	Username     string    `json:"username"`
	Token        string    `json:"token"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Manager consults its stores in order. Writes go to the first store that
// accepts them, reads return the first hit.
type Manager struct {
	stores []CredentialStore
}

// defaultSource is implemented by stores that can name an account without
// being told which one
type defaultSource interface {
	RetrieveDefault() (*Account, error)
}

// NewManager creates a credential manager backed by the system keyring, an
// encrypted file under dir and the environment, in that order. An empty dir
// selects DefaultConfigDir.
func NewManager(dir string) (*Manager, error) {
	var stores []CredentialStore

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	if dir == "" {
		var err error
		if dir, err = DefaultConfigDir(); err != nil {
			return nil, err
		}
	}

	fileStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}

	return &Manager{stores: append(stores, fileStore, NewEnvironmentStore())}, nil
}

// Store stamps LastModified and saves the account in the first writable
// store
func (m *Manager) Store(account *Account) error {
	switch {
	case account == nil || account.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	case account.Token == "":
		return fmt.Errorf("%w: token is required", ErrInvalidCredentials)
	}
	account.LastModified = time.Now()

	var errs []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
}

func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault picks the account to use when none is named: the
// environment token first, then the keyring's last login, then the newest
// account any store knows about.
func (m *Manager) RetrieveDefault() (*Account, error) {
	ordered := slices.Clone(m.stores)
	slices.SortStableFunc(ordered, func(a, b CredentialStore) int {
		_, aEnv := a.(*EnvironmentStore)
		_, bEnv := b.(*EnvironmentStore)
		switch {
		case aEnv && !bEnv:
			return -1
		case bEnv && !aEnv:
			return 1
		}
		return 0
	})

	for _, store := range ordered {
		if src, ok := store.(defaultSource); ok {
			if account, err := src.RetrieveDefault(); err == nil {
				return account, nil
			}
		}
	}

	if accounts, _ := m.List(); len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// List merges every store's accounts, keeping the newest copy per username,
// newest first. Stores that fail to list are skipped.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if prev, ok := byName[account.Username]; !ok || account.LastModified.After(prev.LastModified) {
				byName[account.Username] = account
			}
		}
	}

	out := make([]*Account, 0, len(byName))
	for _, account := range byName {
		out = append(out, account)
	}
	slices.SortFunc(out, func(a, b *Account) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return cmp.Compare(a.Username, b.Username)
	})
	return out, nil
}

// Delete removes username from every store that has it
func (m *Manager) Delete(username string) error {
	var (
		deleted bool
		errs    []error
	)
	for _, store := range m.stores {
		switch err := store.Delete(username); {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			errs = append(errs, err)
		}
	}

	switch {
	case deleted:
		return nil
	case len(errs) > 0:
		return fmt.Errorf("failed to delete credentials: %w", errors.Join(errs...))
	default:
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}
}

func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	var errs []error
	for _, account := range accounts {
		if err := m.Delete(account.Username); err != nil && !errors.Is(err, ErrCredentialsNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultConfigDir returns <user config dir>/discogscatalog, creating it
// when missing
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	dir := filepath.Join(base, "discogscatalog")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy of account safe to print
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	masked := *account
	masked.Token = maskString(account.Token)
	return &masked
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
