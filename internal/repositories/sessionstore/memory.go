package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
)

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

// memoryStore keeps sessions in a map with lazy expiry. Used when no redis
// is configured and in tests.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session repository.
func NewMemoryStore() repositories.SessionRepository {
	return &memoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *memoryStore) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = memoryEntry{
		session:   *session,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return nil, repositories.ErrNotFound
	}

	session := entry.session
	return &session, nil
}

func (s *memoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memoryStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.sessions {
		if entry.session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}
