package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// accountRecord is the on-disk shape of one account file. PasswordHash is
// bcrypt(password_md5) — the wire protocol's password_md5 digest is never
// persisted verbatim, so a leaked account file doesn't yield a directly
// replayable credential.
type accountRecord struct {
	Name           string   `yaml:"name"`
	PasswordHash   string   `yaml:"password_hash"`
	CharacterNames []string `yaml:"character_names"`
}

// Account is the storage-facing view of an account, with the wire-visible
// fields only (no password hash).
type Account struct {
	Name           string
	CharacterNames []string
}

// AccountStorage persists accounts as one YAML file per account under a
// realm directory. Concurrent writers to the same file are disallowed by
// convention — a single process hosts one instance of each tier.
type AccountStorage struct {
	dir string
}

func NewAccountStorage(realmDir string) *AccountStorage {
	return &AccountStorage{dir: filepath.Join(realmDir, "accounts")}
}

func (s *AccountStorage) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

func (s *AccountStorage) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// TryLoad loads the account and verifies passwordMD5 (the client's MD5
// digest of the user's password) against the stored bcrypt hash.
func (s *AccountStorage) TryLoad(name, passwordMD5 string) (Account, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("read account %s: %w", name, err)
	}

	var rec accountRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return Account{}, fmt.Errorf("parse account %s: %w", name, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(passwordMD5)); err != nil {
		return Account{}, ErrInvalidPassword
	}

	return Account{Name: rec.Name, CharacterNames: rec.CharacterNames}, nil
}

// Create makes a new account with the given password_md5, bcrypt-hashed
// before it ever touches disk.
func (s *AccountStorage) Create(name, passwordMD5 string) (Account, error) {
	if s.Exists(name) {
		return Account{}, ErrAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passwordMD5), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	acct := Account{Name: name}
	if err := s.save(acct, string(hash)); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Save persists acct's character_names, keeping the existing password hash.
func (s *AccountStorage) Save(acct Account) error {
	raw, err := os.ReadFile(s.path(acct.Name))
	if err != nil {
		return fmt.Errorf("read account %s: %w", acct.Name, err)
	}
	var rec accountRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("parse account %s: %w", acct.Name, err)
	}
	return s.save(acct, rec.PasswordHash)
}

func (s *AccountStorage) save(acct Account, passwordHash string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create realm dir: %w", err)
	}
	rec := accountRecord{
		Name:           acct.Name,
		PasswordHash:   passwordHash,
		CharacterNames: acct.CharacterNames,
	}
	out, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal account %s: %w", acct.Name, err)
	}
	if err := os.WriteFile(s.path(acct.Name), out, 0o600); err != nil {
		return fmt.Errorf("write account %s: %w", acct.Name, err)
	}
	return nil
}

func (s *AccountStorage) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete account %s: %w", name, err)
	}
	return nil
}
