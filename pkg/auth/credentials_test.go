package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreRetrieve(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{Username: "crate-digger", Token: "abcdefghijklmnop"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())
	assert.Equal(t, 1, store.Count())

	got, err := manager.Retrieve("crate-digger")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnop", got.Token)

	_, err = manager.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{Token: "tok"}))
	assert.Error(t, manager.Store(&Account{Username: "user"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("keyring locked")
	working := NewMockStore()
	manager := NewManagerWithStores(failing, working)

	require.NoError(t, manager.Store(&Account{Username: "user", Token: "token-1234567"}))
	assert.Equal(t, 0, failing.Count())
	assert.Equal(t, 1, working.Count())

	got, err := manager.Retrieve("user")
	require.NoError(t, err)
	assert.Equal(t, "token-1234567", got.Token)
}

func TestManagerStoreAllFail(t *testing.T) {
	store := NewMockStore()
	store.StoreError = ErrStoreUnavailable
	manager := NewManagerWithStores(store)

	err := manager.Store(&Account{Username: "user", Token: "token"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerListNewestFirst(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Account{Username: "a", Token: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, older.Store(&Account{Username: "b", Token: "b", LastModified: now.Add(-2 * time.Hour)}))
	require.NoError(t, newer.Store(&Account{Username: "a", Token: "new", LastModified: now}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].Username)
	assert.Equal(t, "new", accounts[0].Token)
	assert.Equal(t, "b", accounts[1].Username)
}

func TestManagerRetrieveDefault(t *testing.T) {
	t.Setenv(TokenEnv, "")
	manager, _ := NewMockManager()

	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, manager.Store(&Account{Username: "user", Token: "stored-token"}))
	got, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "stored-token", got.Token)
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	t.Setenv(UsernameEnv, "")
	store := NewMockStore()
	require.NoError(t, store.Store(&Account{Username: "user", Token: "stored-token"}))
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	got, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-token", got.Token)
	assert.Equal(t, "default", got.Username)
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()
	require.NoError(t, manager.Store(&Account{Username: "user", Token: "token"}))

	require.NoError(t, manager.Delete("user"))
	assert.Equal(t, 0, store.Count())
	assert.ErrorIs(t, manager.Delete("user"), ErrCredentialsNotFound)
}

func TestManagerDeleteReportsStoreFailure(t *testing.T) {
	broken := NewMockStore()
	broken.DeleteError = errors.New("keyring locked")
	manager := NewManagerWithStores(broken, NewEnvironmentStore())

	err := manager.Delete("user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyring locked")
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDeleteAll(t *testing.T) {
	manager, store := NewMockManager()
	require.NoError(t, manager.Store(&Account{Username: "one", Token: "token"}))
	require.NoError(t, manager.Store(&Account{Username: "two", Token: "token"}))

	require.NoError(t, manager.DeleteAll())
	assert.Equal(t, 0, store.Count())
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".passphrase"))

	require.NoError(t, store.Store(&Account{Username: "user", Token: "secret-token-value"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token-value")

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Retrieve("user")
	require.NoError(t, err)
	assert.Equal(t, "secret-token-value", got.Token)
	assert.True(t, reopened.Exists("user"))

	accounts, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, reopened.Delete("user"))
	assert.NoFileExists(t, path)
	_, err = reopened.Retrieve("user")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(PassphraseEnv, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Username: "user", Token: "token"}))

	t.Setenv(PassphraseEnv, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("user")
	assert.ErrorIs(t, err, ErrUndecryptable)
	assert.ErrorIs(t, other.Store(&Account{Username: "other", Token: "token"}), ErrUndecryptable)

	// the original passphrase still opens the untouched file
	t.Setenv(PassphraseEnv, "first")
	again, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.True(t, again.Exists("user"))
	assert.False(t, again.Exists("other"))
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(TokenEnv, "")
	assert.False(t, store.Exists(""))
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(TokenEnv, "env-token")
	t.Setenv(UsernameEnv, "crate-digger")
	got, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "crate-digger", got.Username)
	assert.Equal(t, "env-token", got.Token)

	assert.ErrorIs(t, store.Store(got), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("crate-digger"), ErrStoreUnavailable)
}

func TestSanitizeAccount(t *testing.T) {
	assert.Nil(t, SanitizeAccount(nil))

	masked := SanitizeAccount(&Account{Username: "user", Token: "abcdefghijklmnop"})
	assert.Equal(t, "user", masked.Username)
	assert.Equal(t, "abcd...mnop", masked.Token)

	assert.Equal(t, "********", SanitizeAccount(&Account{Token: "short"}).Token)
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)

	assert.Contains(t, buf.String(), TokenSettingsURL)
	assert.Contains(t, buf.String(), TokenEnv)
}
