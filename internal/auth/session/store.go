package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Store keeps admin sessions in process memory. Sessions are opaque
// random tokens with an absolute expiry; expired entries are dropped
// lazily on lookup.
type Store struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		sessions: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create mints a new session token and returns it with its expiry.
func (s *Store) Create() (string, time.Time) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	token := hex.EncodeToString(buf)
	expiresAt := s.now().Add(s.ttl)

	s.mu.Lock()
	s.sessions[token] = expiresAt
	s.mu.Unlock()

	return token, expiresAt
}

// Valid reports whether token names a live session.
func (s *Store) Valid(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(expiresAt) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Revoke drops the session, if present.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
