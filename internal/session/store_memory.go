package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentra/internal/domain"
	"sentra/pkg/platform/sentinel"
)

// InMemoryStore is a concurrency-safe session store with TTL-based eviction
// for single-instance deployments and tests. It favours clarity over
// performance.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewInMemoryStore builds an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*domain.Session)}
}

// Create stores a new session.
func (s *InMemoryStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s: %w", session.ID, sentinel.ErrConflict)
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

// FindByID returns the session, including revoked and expired ones that have
// not been swept yet; callers check liveness.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	copied := *session
	return &copied, nil
}

// Revoke marks the session revoked. The write holds the lock, so it is
// visible to every subsequent reader before this returns. Revoking twice is
// idempotent; the first timestamp wins.
func (s *InMemoryStore) Revoke(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	if session.RevokedAt == nil {
		session.RevokedAt = &at
	}
	return nil
}

// ListActive returns copies of all sessions that are neither revoked nor
// expired.
func (s *InMemoryStore) ListActive(_ context.Context) ([]*domain.Session, error) {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Session
	for _, session := range s.sessions {
		if session.Live(now) {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ActiveCount returns the number of live sessions.
func (s *InMemoryStore) ActiveCount(ctx context.Context) (int, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

// Sweep evicts sessions that expired or were revoked before the cutoff,
// returning how many were removed. A janitor calls this periodically.
func (s *InMemoryStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(cutoff) ||
			(session.RevokedAt != nil && session.RevokedAt.Before(cutoff)) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps on the given interval until the context is canceled.
func (s *InMemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
