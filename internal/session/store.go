// Package session owns the bearer credential used for every API call.
package session

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds the current token in memory and mirrors it to a TokenPersister
// so a login survives restarts. Durable writes are best-effort.
type Store struct {
	mu    sync.RWMutex
	token string

	// writeMu serializes token changes so the persister sees them in the
	// same order as memory. Readers only take mu.
	writeMu sync.Mutex
	persist TokenPersister
	logger  *zap.Logger
}

// New creates a store and recovers any previously persisted token.
// A nil persister keeps the token in memory only.
func New(persist TokenPersister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{persist: persist, logger: logger}

	if persist != nil {
		token, err := persist.Load()
		if err != nil {
			logger.Warn("could not recover session token", zap.Error(err))
		} else {
			s.token = token
		}
	}
	return s
}

// SetToken stores token for subsequent requests.
func (s *Store) SetToken(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.persist == nil {
		return
	}
	if err := s.persist.Save(token); err != nil {
		s.logger.Warn("session token kept in memory only", zap.Error(err))
	}
}

// ClearToken forgets the token in memory and in durable storage. Idempotent.
func (s *Store) ClearToken() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.clearLocked()
}

// ClearTokenIf clears the store only while it still holds token, and reports
// whether it did. A rejection of a token that has since been replaced by a new
// login leaves the new one alone.
func (s *Store) ClearTokenIf(token string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Token() != token {
		return false
	}
	s.clearLocked()
	return true
}

func (s *Store) clearLocked() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.persist == nil {
		return
	}
	if err := s.persist.Clear(); err != nil {
		s.logger.Warn("could not remove persisted session token", zap.Error(err))
	}
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}
