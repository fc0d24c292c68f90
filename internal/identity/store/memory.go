package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"recoveryregister/internal/identity/models"
	"recoveryregister/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in a map. It favors clarity over
// performance and backs unit tests and credential-less dev runs.
// Uniqueness checks and the ID sequence share one lock, so concurrent
// duplicate registrations cannot both succeed.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Identity
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1, byID: make(map[int64]*models.Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if identity.Username != "" && strings.EqualFold(existing.Username, identity.Username) {
			return nil, sentinel.ErrConflict
		}
		if identity.Email != "" && strings.EqualFold(existing.Email, identity.Email) {
			return nil, sentinel.ErrConflict
		}
	}

	stored := *identity
	stored.ID = s.nextID
	s.nextID++
	s.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.byID[id]; ok {
		out := *identity
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByIdentifier(_ context.Context, identifier string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.byID {
		if identity.Username != "" && strings.EqualFold(identity.Username, identifier) {
			out := *identity
			return &out, nil
		}
		if identity.Email != "" && strings.EqualFold(identity.Email, identifier) {
			out := *identity
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateEmail(_ context.Context, id int64, email string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	for otherID, existing := range s.byID {
		if otherID != id && email != "" && strings.EqualFold(existing.Email, email) {
			return nil, sentinel.ErrConflict
		}
	}
	if err := identity.UpgradeEmail(email, time.Now()); err != nil {
		return nil, err
	}
	out := *identity
	return &out, nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	identity.PasswordHash = passwordHash
	identity.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) UpdateRole(_ context.Context, id int64, role models.Role) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := identity.SetRole(role, time.Now()); err != nil {
		return nil, err
	}
	out := *identity
	return &out, nil
}
