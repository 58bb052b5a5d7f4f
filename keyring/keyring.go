// Package keyring provides secure credential storage.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/yllada/quicklinks/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "quicklinks"
	probeKey    = "quicklinks-probe"
)

// Common errors returned by keyring operations.
var (
	ErrNotFound     = common.ErrCredentialsNotFound
	ErrEmptyAccount = errors.New("account cannot be empty")
	ErrEmptySecret  = errors.New("secret cannot be empty")
)

// Store keeps secrets per account. It implements common.CredentialStore.
type Store struct {
	mu     sync.Mutex
	system bool
	dir    string
	file   *fileStore
}

var _ common.CredentialStore = (*Store)(nil)

// Open probes the system keyring and returns a store backed by it, or
// by an encrypted file in dir when the keyring is unavailable.
func Open(dir string) *Store {
	s := &Store{dir: dir}
	err := keyring.Set(serviceName, probeKey, "probe")
	if err == nil {
		keyring.Delete(serviceName, probeKey)
		s.system = true
		common.LogDebug("Using system keyring for credentials")
		return s
	}
	common.LogWarn("System keyring unavailable, using encrypted file: %v", err)
	s.file = openFileStore(dir)
	return s
}

// OpenFile returns a store that always uses the encrypted file in dir.
func OpenFile(dir string) *Store {
	return &Store{dir: dir, file: openFileStore(dir)}
}

// Backend names the storage in use: "system" or "file".
func (s *Store) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system {
		return "system"
	}
	return "file"
}

// fallbackLocked switches to the file backend. Caller must hold s.mu.
func (s *Store) fallbackLocked(cause error) {
	common.LogWarn("System keyring failed, falling back to encrypted file: %v", cause)
	s.system = false
	if s.file == nil {
		s.file = openFileStore(s.dir)
	}
}

// Set saves a secret for an account.
func (s *Store) Set(account, secret string) error {
	if account == "" {
		return ErrEmptyAccount
	}
	if secret == "" {
		return ErrEmptySecret
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.system {
		err := keyring.Set(serviceName, account, secret)
		if err == nil {
			return nil
		}
		s.fallbackLocked(err)
	}

	if err := s.file.set(account, secret); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// Get retrieves the secret for an account.
func (s *Store) Get(account string) (string, error) {
	if account == "" {
		return "", ErrEmptyAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.system {
		secret, err := keyring.Get(serviceName, account)
		if err == nil {
			return secret, nil
		}
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		common.LogDebug("System keyring read failed: %v", err)
		if s.file == nil {
			return "", ErrNotFound
		}
	}

	secret, ok := s.file.get(account)
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

// Delete removes the secret for an account. Deleting a missing account
// is not an error.
func (s *Store) Delete(account string) error {
	if account == "" {
		return ErrEmptyAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.system {
		if err := keyring.Delete(serviceName, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			common.LogDebug("System keyring delete failed: %v", err)
		}
	}
	if s.file != nil {
		if err := s.file.delete(account); err != nil {
			return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
		}
	}
	return nil
}

// Exists checks if a secret is stored for an account.
func (s *Store) Exists(account string) bool {
	_, err := s.Get(account)
	return err == nil
}
