//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "recoveryregister/internal/identity/models"
	"recoveryregister/internal/session/models"
	"recoveryregister/internal/session/store"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeSession(token string, userID int64, ttl time.Duration) *models.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Session{
		Token: token,
		Level: models.LevelUser,
		User: models.Snapshot{
			UserID:   userID,
			Username: "casey",
			Role:     identitymodels.RoleUser,
			Profile:  identitymodels.ProfileBasic,
		},
		Device:     "Firefox on Linux",
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	sess := makeSession("tok-1", 7, time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.Find(ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal("tok-1", found.Token)
	s.Equal(sess.User, found.User)
	s.Equal(models.LevelUser, found.Level)
	s.WithinDuration(sess.ExpiresAt, found.ExpiresAt, time.Millisecond)
}

func (s *RedisStoreSuite) TestFindUnknownToken() {
	_, err := s.store.Find(context.Background(), "no-such-token")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestNativeExpiry() {
	ctx := context.Background()
	sess := makeSession("tok-short", 7, 150*time.Millisecond)
	s.Require().NoError(s.store.Create(ctx, sess))

	time.Sleep(400 * time.Millisecond)

	_, err := s.store.Find(ctx, "tok-short")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSaveRefusesDestroyedSession() {
	ctx := context.Background()
	sess := makeSession("tok-gone", 7, time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	deleted, err := s.store.Delete(ctx, "tok-gone")
	s.Require().NoError(err)
	s.True(deleted)

	sess.Touch(time.Now(), time.Hour)
	s.ErrorIs(s.store.Save(ctx, sess), sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteIsIdempotent() {
	ctx := context.Background()
	sess := makeSession("tok-once", 7, time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	deleted, err := s.store.Delete(ctx, "tok-once")
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.store.Delete(ctx, "tok-once")
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *RedisStoreSuite) TestListByUserDropsStaleIndexEntries() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-a", 7, time.Hour)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-b", 7, 150*time.Millisecond)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-c", 8, time.Hour)))

	time.Sleep(400 * time.Millisecond)

	sessions, err := s.store.ListByUser(ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal("tok-a", sessions[0].Token)
}

func (s *RedisStoreSuite) TestDeleteByUser() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-a", 7, time.Hour)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-b", 7, time.Hour)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-other", 8, time.Hour)))

	deleted, err := s.store.DeleteByUser(ctx, 7)
	s.Require().NoError(err)
	s.Equal(2, deleted)

	_, err = s.store.Find(ctx, "tok-a")
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.Find(ctx, "tok-other")
	s.Require().NoError(err)
	s.Equal(int64(8), found.User.UserID)
}
