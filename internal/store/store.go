package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Persisted keys. These names are part of the contract other code
// relies on; do not rename them.
const (
	KeyToken          = "token"
	KeyRefreshToken   = "refreshToken"
	KeyUser           = "user"
	KeyViewedArticles = "viewedArticles"
)

// saltKey is an internal row holding the vault salt, not client state.
const saltKey = "_vault_salt"

// sealedPrefix marks values that were sealed by a vault.
const sealedPrefix = "enc:"

// Store is the persisted key/value holder for tokens and the cached
// user profile. Pure storage, no business logic: the session manager
// owns what goes in and when it is cleared.
type Store struct {
	db    *sql.DB
	vault *Vault
}

// DefaultPath returns the default store path (~/.inkwell/state.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".inkwell", "state.db"), nil
}

// Open opens or creates the store. A non-empty passphrase seals token
// values at rest; an empty one stores them in the clear.
func Open(path, passphrase string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	if passphrase != "" {
		salt, err := s.loadOrCreateSalt()
		if err != nil {
			return nil, err
		}
		s.vault = NewVault(passphrase, salt)
	}

	return s, nil
}

// OpenDefault opens the store at the default path
func OpenDefault(passphrase string) (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path, passphrase)
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	return err
}

func (s *Store) loadOrCreateSalt() ([]byte, error) {
	raw, ok, err := s.rawGet(saltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		return DecodeSalt(raw)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := s.rawSet(saltKey, EncodeSalt(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *Store) rawGet(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) rawSet(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

// seal encrypts a value when a vault is configured.
func (s *Store) seal(value string) (string, error) {
	if s.vault == nil || value == "" {
		return value, nil
	}
	sealed, err := s.vault.Encrypt([]byte(value))
	if err != nil {
		return "", err
	}
	return sealedPrefix + sealed, nil
}

// unseal reverses seal. A sealed value without a vault is an error
// rather than garbage handed to callers.
func (s *Store) unseal(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if s.vault == nil {
		return "", fmt.Errorf("value is sealed but no vault passphrase is configured")
	}
	plain, err := s.vault.Decrypt(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Get returns the value for key, reporting whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	raw, ok, err := s.rawGet(key)
	if err != nil || !ok {
		return "", ok, err
	}
	value, err := s.unseal(raw)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes a single key.
func (s *Store) Set(key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.rawSet(key, sealed)
}

// SetAll writes every pair in one transaction, so a session is
// persisted atomically or not at all.
func (s *Store) SetAll(pairs map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for key, value := range pairs {
		sealed, err := s.seal(value)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, sealed, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes the given keys in one transaction. Missing keys are
// not an error.
func (s *Store) Delete(keys ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
