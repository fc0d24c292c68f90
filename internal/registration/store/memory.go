package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"recoveryregister/internal/registration/models"
	"recoveryregister/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in a map. The duplicate check and
// the ID sequence share one lock so a racing double-submit cannot slip
// two rows in.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Registration
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1, byID: make(map[int64]*models.Registration)}
}

func (s *InMemoryStore) Create(_ context.Context, registration *models.Registration) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if registration.Email != "" {
		for _, existing := range s.byID {
			if existing.EventID == registration.EventID && strings.EqualFold(existing.Email, registration.Email) {
				return nil, sentinel.ErrConflict
			}
		}
	}

	stored := *registration
	stored.Topics = append([]string(nil), registration.Topics...)
	stored.ID = s.nextID
	s.nextID++
	s.byID[stored.ID] = &stored

	out := stored
	out.Topics = append([]string(nil), stored.Topics...)
	return &out, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, registration := range s.byID {
		if registration.UserID == userID {
			copied := *registration
			copied.Topics = append([]string(nil), registration.Topics...)
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Registration, 0, len(s.byID))
	for _, registration := range s.byID {
		copied := *registration
		copied.Topics = append([]string(nil), registration.Topics...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) CountByEvent(_ context.Context, eventID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, registration := range s.byID {
		if registration.EventID == eventID {
			count++
		}
	}
	return count, nil
}
