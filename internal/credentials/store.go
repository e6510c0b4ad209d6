// Package credentials stores per-connection passwords, preferring the
// desktop keyring with a silent fallback to an owner-only file.
package credentials

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDirName          = "rdp2gui"
	credentialsFileName = "credentials.json"
)

// Store holds the credential map in memory and persists it on every
// change. The whole map travels as a single keyring entry, so one unlock
// covers every password.
// Thread-safe with mutex protection for concurrent access.
type Store struct {
	path    string
	backend SecretBackend

	mu      sync.Mutex
	enabled bool
	creds   map[string]string
}

// DefaultPath returns the fallback credentials file under the user config
// directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(base, appDirName, credentialsFileName), nil
}

// NewStore opens the credential store at the default location. A nil
// backend means file storage only.
func NewStore(backend SecretBackend) (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(backend, path)
}

// NewStoreWithPath opens a credential store with the given fallback file.
func NewStoreWithPath(backend SecretBackend, path string) (*Store, error) {
	// 0700 keeps stored passwords away from other users.
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	s := &Store{
		path:    path,
		backend: backend,
		enabled: true,
	}
	s.creds = s.load()

	return s, nil
}

// SavePassword stores the password for a host and username pair.
func (s *Store) SavePassword(host, username, password string) error {
	if host == "" || username == "" {
		return fmt.Errorf("host and username are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[credentialKey(host, username)] = password
	return s.persist()
}

// PasswordFor returns the stored password for a host and username pair.
func (s *Store) PasswordFor(host, username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	password, ok := s.creds[credentialKey(host, username)]
	return password, ok
}

// Count returns the number of stored passwords.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.creds)
}

// Clear removes every saved password from both the keyring and the
// fallback file. Keyring errors are logged and ignored so a broken daemon
// cannot leave passwords behind on disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = map[string]string{}

	if s.usableBackend() {
		if err := s.backend.Delete(); err != nil {
			log.Printf("Warning: %v", &BackendError{Op: "clear", Err: err})
		}
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// SetBackendEnabled turns keyring use on or off for this run. The choice
// is not persisted. Enabling fails when no usable backend is present;
// disabling always succeeds.
func (s *Store) SetBackendEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !enabled {
		s.enabled = false
		return nil
	}
	if s.backend == nil || !s.backend.Available() {
		return &BackendError{Op: "enable", Err: ErrBackendUnavailable}
	}
	s.enabled = true
	return nil
}

// BackendEnabled reports whether keyring use is currently turned on.
func (s *Store) BackendEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enabled
}

// BackendAvailable reports whether a usable keyring backend is present.
func (s *Store) BackendAvailable() bool {
	return s.backend != nil && s.backend.Available()
}

// BackendKind names the keyring backend for display.
func (s *Store) BackendKind() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Kind()
}

// load pulls the credential map from the keyring, falling back to the
// file. Both sources missing yields an empty map.
func (s *Store) load() map[string]string {
	if s.usableBackend() {
		data, err := s.backend.Get()
		if err != nil {
			log.Printf("Warning: %v, falling back to file storage", &BackendError{Op: "load", Err: err})
		} else if len(data) > 0 {
			var creds map[string]string
			if err := json.Unmarshal(data, &creds); err != nil {
				log.Printf("Warning: keyring entry is not valid JSON, falling back to file storage: %v", err)
			} else {
				return creds
			}
		}
	}

	creds := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read credentials file: %v", err)
		}
		return creds
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		log.Printf("Warning: credentials file is not valid JSON: %v", err)
		return map[string]string{}
	}

	// Files written by older versions may be group readable.
	_ = os.Chmod(s.path, 0600)

	return creds
}

// persist writes the whole credential map, keyring first with silent file
// fallback. Callers hold the mutex.
func (s *Store) persist() error {
	data, err := json.Marshal(s.creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if s.usableBackend() {
		err := s.backend.Set(data)
		if err == nil {
			return nil
		}
		log.Printf("Warning: %v, falling back to file storage", &BackendError{Op: "store", Err: err})
	}

	// 0600 = owner read/write only
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// usableBackend reports whether the keyring should be tried. Callers hold
// the mutex.
func (s *Store) usableBackend() bool {
	return s.enabled && s.backend != nil && s.backend.Available()
}

// credentialKey builds the storage key for a host and username pair,
// matching the key format of existing stored credential files.
func credentialKey(host, username string) string {
	return host + ":" + username
}
