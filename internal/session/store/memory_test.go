package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "recoveryregister/internal/identity/models"
	"recoveryregister/internal/session/models"
	"recoveryregister/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func makeSession(token string, userID int64) *models.Session {
	now := time.Now()
	return &models.Session{
		Token:      token,
		Level:      models.LevelUser,
		User:       models.Snapshot{UserID: userID, Username: "alice", Role: identitymodels.RoleUser},
		Device:     "Firefox on Linux",
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		LastSeenAt: now,
	}
}

func (s *SessionStoreSuite) TestLookup() {
	s.Run("returns stored session when found", func() {
		sess := makeSession("tok-1", 1)
		s.Require().NoError(s.store.Create(context.Background(), sess))

		found, err := s.store.Find(context.Background(), "tok-1")
		s.Require().NoError(err)
		s.Equal(sess, found)
	})

	s.Run("returns ErrNotFound when session does not exist", func() {
		_, err := s.store.Find(context.Background(), "absent")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestSaveRequiresExisting() {
	err := s.store.Save(context.Background(), makeSession("tok-1", 1))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionStoreSuite) TestDeleteReportsExistence() {
	s.Require().NoError(s.store.Create(context.Background(), makeSession("tok-1", 1)))

	existed, err := s.store.Delete(context.Background(), "tok-1")
	s.Require().NoError(err)
	s.True(existed)

	existed, err = s.store.Delete(context.Background(), "tok-1")
	s.Require().NoError(err)
	s.False(existed)
}

func (s *SessionStoreSuite) TestListAndDeleteByUser() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-1", 1)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-2", 1)))
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-3", 2)))

	sessions, err := s.store.ListByUser(ctx, 1)
	s.Require().NoError(err)
	s.Len(sessions, 2)

	deleted, err := s.store.DeleteByUser(ctx, 1)
	s.Require().NoError(err)
	s.Equal(2, deleted)
	s.Equal(1, s.store.Len())
}

func (s *SessionStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	live := makeSession("tok-live", 1)
	dead := makeSession("tok-dead", 1)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.Create(ctx, live))
	s.Require().NoError(s.store.Create(ctx, dead))

	deleted, err := s.store.DeleteExpired(ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, err = s.store.Find(ctx, "tok-live")
	s.Require().NoError(err)
}

func (s *SessionStoreSuite) TestConcurrentTouchDoesNotCorrupt() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession("tok-1", 1)))

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.store.Find(ctx, "tok-1")
			if err != nil {
				return
			}
			sess.Touch(time.Now(), time.Hour)
			_ = s.store.Save(ctx, sess)
		}()
	}
	wg.Wait()

	found, err := s.store.Find(ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(int64(1), found.User.UserID)
}
