package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated passphrase for the encrypted store
const PassphraseEnv = "DISCOGSCATALOG_PASSPHRASE"

const (
	envelopeVersion = 2
	saltLen         = 32
	keyLen          = 32
	kdfRounds       = 100000
	passphraseFile  = ".passphrase"
)

// ErrUndecryptable is returned when the credentials file cannot be opened
// with the current passphrase
var ErrUndecryptable = errors.New("credentials file cannot be decrypted")

// envelope is the on-disk form of the token file. Byte slices are base64
// encoded by encoding/json.
type envelope struct {
	Version    int       `json:"version"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Modified   time.Time `json:"modified"`
}

// EncryptedFileStore keeps accounts in a single AES-GCM sealed JSON file.
// The key is derived from a passphrase with PBKDF2-SHA256. Writers take an
// advisory lock on a sibling .lock file.
type EncryptedFileStore struct {
	path       string
	passphrase string
	lock       *flock.Flock

	mu   sync.Mutex
	salt []byte
	key  []byte
}

// NewEncryptedFileStore opens (or prepares) the token file at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{
		path:       path,
		passphrase: passphrase,
		lock:       flock.New(path + ".lock"),
	}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		accounts[account.Username] = *account
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, &account)
	}
	return out, nil
}

// Delete removes one account. The file is removed with the last account.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		if _, ok := accounts[username]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, username)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// update runs fn over the decrypted accounts under both the in-process
// mutex and the file lock, then persists the result.
func (e *EncryptedFileStore) update(fn func(map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock credentials file: %w", err)
	}
	defer e.lock.Unlock()

	accounts, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}

	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		e.salt, e.key = nil, nil
		return nil
	}
	return e.write(accounts)
}

// read returns an empty map when the file does not exist yet
func (e *EncryptedFileStore) read() (map[string]Account, error) {
	accounts := make(map[string]Account)

	raw, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	gcm, err := e.cipherFor(env.Salt)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return nil, ErrUndecryptable
	}
	plain, err := gcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}

	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

func (e *EncryptedFileStore) write(accounts map[string]Account) error {
	salt := e.salt
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return err
	}

	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	data, err := json.MarshalIndent(envelope{
		Version:    envelopeVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plain, nil),
		Modified:   time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), e.path)
}

// cipherFor derives the key for salt, reusing the previous derivation when
// the salt has not changed
func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	if len(salt) == 0 {
		return nil, ErrUndecryptable
	}
	if e.key == nil || string(e.salt) != string(salt) {
		e.key = pbkdf2.Key([]byte(e.passphrase), salt, kdfRounds, keyLen, sha256.New)
		e.salt = append([]byte(nil), salt...)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers PassphraseEnv, then a .passphrase file in dir,
// creating one with random content on first use
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	path := filepath.Join(dir, passphraseFile)
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	pass := base64.RawURLEncoding.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(pass), 0o600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
