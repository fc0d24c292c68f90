package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"recoveryregister/internal/schedule/models"
	"recoveryregister/pkg/platform/sentinel"
)

// InMemoryStore keeps events in a map for tests and dev runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Event
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1, byID: make(map[int64]*models.Event)}
}

func (s *InMemoryStore) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *event
	stored.ID = s.nextID
	s.nextID++
	s.byID[stored.ID] = &stored

	event.ID = stored.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if event, ok := s.byID[id]; ok {
		out := *event
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[event.ID]; !ok {
		return sentinel.ErrNotFound
	}
	stored := *event
	s.byID[event.ID] = &stored
	return nil
}

func (s *InMemoryStore) ListUpcoming(_ context.Context, now time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.byID {
		if event.Active && event.Upcoming(now) {
			copied := *event
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Event, 0, len(s.byID))
	for _, event := range s.byID {
		copied := *event
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
