package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	done     chan struct{}
	closed   bool
}

// creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]Session),
		done:     make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[key]
	if !exists {
		return nil, nil
	}

	return &session, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = *session
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}

// returns the number of cached sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

// drops sessions the backend has already expired
func (s *MemoryStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, session := range s.sessions {
		if !now.Before(session.ExpiresAt()) {
			delete(s.sessions, key)
		}
	}
}
