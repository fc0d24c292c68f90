//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	eventmodels "recoveryregister/internal/schedule/models"
	schedulestore "recoveryregister/internal/schedule/store"

	"recoveryregister/internal/registration/models"
	"recoveryregister/internal/registration/store"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	events   *schedulestore.PostgresStore
	eventID  int64
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
	s.events = schedulestore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx, "registrations", "events"))

	event, err := eventmodels.NewEvent("Tuesday Circle", time.Now().Add(48*time.Hour), 90, 0, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.events.Create(ctx, event))
	s.eventID = event.ID
}

func (s *PostgresStoreSuite) newRegistration(pseudonym, email string, topics []string) *models.Registration {
	registration, err := models.NewRegistration(s.eventID, pseudonym, email, "", topics, "", true, time.Now())
	s.Require().NoError(err)
	return registration
}

func (s *PostgresStoreSuite) TestCreateRoundTripsTopicsArray() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, s.newRegistration("river", "river@example.com", []string{"housing", "peer support"}))
	s.Require().NoError(err)
	s.NotZero(created.ID)

	rows, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal([]string{"housing", "peer support"}, rows[0].Topics)
	s.Equal("river@example.com", rows[0].Email)
}

func (s *PostgresStoreSuite) TestDuplicateEmailPerEventConflicts() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, s.newRegistration("river", "river@example.com", nil))
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, s.newRegistration("someone else", "RIVER@example.com", nil))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestEmaillessWalkInsNeverConflict() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, s.newRegistration("walk-in one", "", nil))
	s.Require().NoError(err)
	_, err = s.store.Create(ctx, s.newRegistration("walk-in two", "", nil))
	s.Require().NoError(err)

	count, err := s.store.CountByEvent(ctx, s.eventID)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *PostgresStoreSuite) TestListByUser() {
	ctx := context.Background()
	mine := s.newRegistration("river", "river@example.com", nil)
	mine.UserID = 0

	// Walk-in rows carry no user and must not appear in any user listing.
	_, err := s.store.Create(ctx, mine)
	s.Require().NoError(err)

	rows, err := s.store.ListByUser(ctx, 12345)
	s.Require().NoError(err)
	s.Empty(rows)
}
