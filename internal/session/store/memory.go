package store

import (
	"context"
	"sync"
	"time"

	"recoveryregister/internal/session/models"
	"recoveryregister/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map guarded by one mutex, which also
// serializes concurrent read-modify-write cycles for the same token.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[token]; ok {
		out := *session
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; !ok {
		return sentinel.ErrNotFound
	}
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.sessions[token]
	delete(s.sessions, token)
	return existed, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.User.UserID == userID {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for token, session := range s.sessions {
		if session.User.UserID == userID {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of stored sessions. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
