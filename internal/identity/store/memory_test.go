package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"recoveryregister/internal/identity/models"
	"recoveryregister/pkg/platform/sentinel"
)

type IdentityStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestIdentityStoreSuite(t *testing.T) {
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *IdentityStoreSuite) mustCreate(username, email string) *models.Identity {
	identity, err := models.NewIdentity(username, email, "hash", models.TypePseudonym, time.Now())
	s.Require().NoError(err)
	created, err := s.store.Create(context.Background(), identity)
	s.Require().NoError(err)
	return created
}

func (s *IdentityStoreSuite) TestCreateAssignsSequentialIDs() {
	a := s.mustCreate("alice", "")
	b := s.mustCreate("bob", "")
	s.Equal(int64(1), a.ID)
	s.Equal(int64(2), b.ID)
}

func (s *IdentityStoreSuite) TestUniqueness() {
	s.Run("duplicate username rejected case-insensitively", func() {
		s.mustCreate("alice", "")
		identity, err := models.NewIdentity("ALICE", "", "hash", models.TypePseudonym, time.Now())
		s.Require().NoError(err)
		_, err = s.store.Create(context.Background(), identity)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate email rejected", func() {
		s.mustCreate("carol", "carol@example.com")
		identity, err := models.NewIdentity("carla", "Carol@Example.com", "hash", models.TypeEmail, time.Now())
		s.Require().NoError(err)
		_, err = s.store.Create(context.Background(), identity)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *IdentityStoreSuite) TestConcurrentDuplicateRegistration() {
	// Two concurrent creates with the same username must not both succeed.
	const goroutines = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity, err := models.NewIdentity("racer", "", "hash", models.TypePseudonym, time.Now())
			if err != nil {
				return
			}
			if _, err := s.store.Create(context.Background(), identity); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, succeeded)
}

func (s *IdentityStoreSuite) TestFindByIdentifier() {
	s.mustCreate("alice", "")
	s.mustCreate("bob", "bob@example.com")

	s.Run("finds by username", func() {
		found, err := s.store.FindByIdentifier(context.Background(), "alice")
		s.Require().NoError(err)
		s.Equal("alice", found.Username)
	})

	s.Run("finds by email regardless of registration form", func() {
		found, err := s.store.FindByIdentifier(context.Background(), "bob@example.com")
		s.Require().NoError(err)
		s.Equal("bob", found.Username)
	})

	s.Run("email lookup misses a pseudonym-only identity", func() {
		_, err := s.store.FindByIdentifier(context.Background(), "alice@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *IdentityStoreSuite) TestReturnsCopies() {
	created := s.mustCreate("alice", "")
	created.Username = "mutated"

	found, err := s.store.FindByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("alice", found.Username, "store must not expose internal state to mutation")
}

func (s *IdentityStoreSuite) TestUpdateEmailClearsAnonymity() {
	created := s.mustCreate("alice", "")
	s.True(created.IsAnonymous)

	updated, err := s.store.UpdateEmail(context.Background(), created.ID, "alice@example.com")
	s.Require().NoError(err)
	s.False(updated.IsAnonymous)
	s.Equal("alice@example.com", updated.Email)
}

func (s *IdentityStoreSuite) TestUpdateRole() {
	created := s.mustCreate("alice", "")

	updated, err := s.store.UpdateRole(context.Background(), created.ID, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, updated.Role)
	s.Equal(models.ProfileAdmin, updated.Profile)

	_, err = s.store.UpdateRole(context.Background(), 999, models.RoleAdmin)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
