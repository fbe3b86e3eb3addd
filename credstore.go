package netatmo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore is the interface for persisting session credentials.
// Load returns (nil, nil) when no usable record exists; absence is a
// cache-miss, never an error. Callers serialize access.
type CredentialStore interface {
	Load() (Credential, error)
	Save(cred Credential) error
	Clear() error
}

// DefaultCredentialPath returns the platform cache location for the
// credential record, e.g. ~/.cache/netatmo/session.json on Linux.
func DefaultCredentialPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(dir, "netatmo", "session.json"), nil
}

// FileCredentialStore persists the credential record as a JSON file.
// The file is readable only by the owning user (0600), and writes go
// through a temp-file-then-rename so a concurrent reader never observes
// a partially written record.
type FileCredentialStore struct {
	filepath string
}

// NewFileCredentialStore creates a FileCredentialStore at the given path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{filepath: path}
}

// Load reads the credential record from disk.
// A missing, empty, or unparsable file is a cache-miss: Load returns
// (nil, nil) and removes the file if its content is corrupt.
func (f *FileCredentialStore) Load() (Credential, error) {
	data, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// Corrupt record; drop it so the next save starts clean.
		os.Remove(f.filepath)
		return nil, nil
	}

	return cred, nil
}

// Save writes the credential record, creating parent directories as needed.
func (f *FileCredentialStore) Save(cred Credential) error {
	if cred == nil {
		return fmt.Errorf("credential cannot be nil")
	}

	dir := filepath.Dir(f.filepath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credential directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	tmpFile := f.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	if err := os.Rename(tmpFile, f.filepath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save credential file: %w", err)
	}

	return nil
}

// Clear removes the credential record. Clearing an absent record is a no-op.
func (f *FileCredentialStore) Clear() error {
	if err := os.Remove(f.filepath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}

// Exists checks if a credential record is present on disk.
func (f *FileCredentialStore) Exists() bool {
	_, err := os.Stat(f.filepath)
	return err == nil
}

// MemoryCredentialStore stores the credential in memory (useful for testing).
type MemoryCredentialStore struct {
	cred Credential
	mu   sync.RWMutex
}

// NewMemoryCredentialStore creates a new in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

// Load returns the stored credential, or (nil, nil) when empty.
func (m *MemoryCredentialStore) Load() (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil {
		return nil, nil
	}
	return m.cred.clone(), nil
}

// Save stores the credential in memory.
func (m *MemoryCredentialStore) Save(cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred.clone()
	return nil
}

// Clear removes the stored credential.
func (m *MemoryCredentialStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
