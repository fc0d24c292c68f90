package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"recoveryregister/internal/session/models"
	"recoveryregister/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix   = "session:tok:"
	userIndexKeyPrefix = "session:user:"
)

// RedisStore persists sessions as JSON values with a native TTL, plus a
// per-user set of tokens for listings and bulk revocation. Redis expiry is
// the backstop; the manager still checks ExpiresAt on every access.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(token string) string { return sessionKeyPrefix + token }

func userIndexKey(userID int64) string {
	return userIndexKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), payload, ttl)
	pipe.SAdd(ctx, userIndexKey(session.User.UserID), session.Token)
	pipe.Expire(ctx, userIndexKey(session.User.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, token string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	session.Token = token
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	// SET XX: only refresh a session that still exists; a destroyed session
	// must not be resurrected by a concurrent touch.
	ok, err := s.client.SetXX(ctx, sessionKey(session.Token), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) (bool, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userIndexKey(session.User.UserID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return true, nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID int64) ([]*models.Session, error) {
	tokens, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []*models.Session
	for _, token := range tokens {
		session, err := s.Find(ctx, token)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Value expired under the index entry; drop the stale member.
				s.client.SRem(ctx, userIndexKey(userID), token)
				continue
			}
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	tokens, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}

	deleted := 0
	for _, token := range tokens {
		n, err := s.client.Del(ctx, sessionKey(token)).Result()
		if err != nil {
			return deleted, fmt.Errorf("delete sessions: %w", err)
		}
		deleted += int(n)
	}
	if err := s.client.Del(ctx, userIndexKey(userID)).Err(); err != nil {
		return deleted, fmt.Errorf("delete session index: %w", err)
	}
	return deleted, nil
}

// DeleteExpired is a no-op: Redis evicts session values natively via TTL.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
