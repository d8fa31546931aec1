// Package session implements the in-memory session store used for
// request authorization. Sessions are deliberately volatile: they are
// never written to durable storage and do not survive a restart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type entry struct {
	userID    string
	expiresAt time.Time
}

// Store maps opaque session tokens to user identities with an absolute
// expiry. Entries are immutable once created; expiry is derived from the
// clock on every lookup, never cached.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry
	lifetime time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates an empty Store issuing sessions with the given lifetime.
func NewStore(lifetime time.Duration) *Store {
	return &Store{
		sessions: make(map[string]entry),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Create issues a fresh unguessable token for the given user and records
// it with an expiry of now + lifetime. It returns the token and its expiry.
func (s *Store) Create(userID string) (string, time.Time) {
	token := uuid.NewString()
	expiresAt := s.now().Add(s.lifetime)

	s.mu.Lock()
	s.sessions[token] = entry{userID: userID, expiresAt: expiresAt}
	s.mu.Unlock()

	return token, expiresAt
}

// Resolve returns the user id associated with token. The second return
// value is false if the token is unknown or expired; an expired session
// is indistinguishable from a missing one.
func (s *Store) Resolve(token string) (string, bool) {
	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return "", false
	}
	return e.userID, true
}

// Lifetime returns the configured session lifetime.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

// StartSweeper evicts expired sessions on the given interval until ctx is
// cancelled. The sweep only bounds memory; Resolve re-checks expiry on
// every call regardless.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.sweep()
				if removed > 0 {
					log.Info("evicted expired sessions", zap.Int("removed", removed))
				}
			}
		}
	}()
}

func (s *Store) sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
