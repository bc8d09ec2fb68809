package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	tokenFileName = "session.json"

	// tokenKey is the fixed key the credential is stored under.
	tokenKey = "access_token"
)

// TokenPersister is the durable side of the session store.
type TokenPersister interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// TokenFile persists the credential as {"access_token": "..."} in a file only
// the current user can read.
type TokenFile struct {
	dir string
}

// NewTokenFile creates a persister that reads/writes session.json in dir.
// The directory is created on the first Save.
func NewTokenFile(dir string) *TokenFile {
	return &TokenFile{dir: dir}
}

// Path returns the full path to the session file.
func (f *TokenFile) Path() string {
	return filepath.Join(f.dir, tokenFileName)
}

// Load returns the stored token, or "" if the file does not exist.
func (f *TokenFile) Load() (string, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading session: %w", err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing session: %w", err)
	}
	return doc[tokenKey], nil
}

// Save writes the token using an atomic temp-file-then-rename.
func (f *TokenFile) Save(token string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	data, err := json.Marshal(map[string]string{tokenKey: token})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path()); err != nil {
		return fmt.Errorf("renaming session file: %w", err)
	}
	committed = true

	return nil
}

// Clear removes the session file. A missing file is not an error.
func (f *TokenFile) Clear() error {
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// Memory keeps the "persisted" token in memory. It stands in for the file when
// persistence is disabled and in tests.
type Memory struct {
	mu    sync.Mutex
	token string
	// Err, when set, is returned by every operation.
	Err error
}

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.token, nil
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.token = token
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.token = ""
	return nil
}
