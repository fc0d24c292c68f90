//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"recoveryregister/internal/identity/models"
	"recoveryregister/internal/identity/store"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order
	err := s.postgres.Truncate(context.Background(), "registrations", "identities")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newIdentity(username, email string) *models.Identity {
	typ := models.TypePseudonym
	if email != "" {
		typ = models.TypeEmail
	}
	identity, err := models.NewIdentity(username, email, "hash-value", typ, time.Now())
	s.Require().NoError(err)
	return identity
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newIdentity("casey", "casey@example.com"))
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.False(created.IsAnonymous)

	byID, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("casey", byID.Username)
	s.Equal("casey@example.com", byID.Email)
	s.Equal(models.RoleUser, byID.Role)
}

func (s *PostgresStoreSuite) TestFindByIdentifierIsCaseInsensitive() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newIdentity("casey", "casey@example.com"))
	s.Require().NoError(err)

	byUsername, err := s.store.FindByIdentifier(ctx, "CASEY")
	s.Require().NoError(err)
	s.Equal(created.ID, byUsername.ID)

	byEmail, err := s.store.FindByIdentifier(ctx, "Casey@Example.COM")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)

	_, err = s.store.FindByIdentifier(ctx, "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentCreateSameUsername() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(ctx, s.newIdentity("river", ""))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should win")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestUpdateEmailClearsAnonymity() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newIdentity("river", ""))
	s.Require().NoError(err)
	s.True(created.IsAnonymous)

	updated, err := s.store.UpdateEmail(ctx, created.ID, "river@example.com")
	s.Require().NoError(err)
	s.Equal("river@example.com", updated.Email)
	s.False(updated.IsAnonymous)

	// Upgrading onto a taken email surfaces the index violation.
	other, err := s.store.Create(ctx, s.newIdentity("casey", "casey@example.com"))
	s.Require().NoError(err)
	_, err = s.store.UpdateEmail(ctx, other.ID, "River@example.com")
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateRolePromotesProfile() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newIdentity("casey", "casey@example.com"))
	s.Require().NoError(err)

	updated, err := s.store.UpdateRole(ctx, created.ID, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, updated.Role)
	s.Equal(models.ProfileAdmin, updated.Profile)

	_, err = s.store.UpdateRole(ctx, 999999, models.RoleAdmin)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdatePassword() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newIdentity("casey", "casey@example.com"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.UpdatePassword(ctx, created.ID, "new-hash"))

	reloaded, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", reloaded.PasswordHash)

	s.ErrorIs(s.store.UpdatePassword(ctx, 999999, "x"), sentinel.ErrNotFound)
}
