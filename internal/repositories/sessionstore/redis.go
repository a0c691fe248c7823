// Package sessionstore provides the session repositories: redis-backed for
// deployments, in-memory for tests and redis-less development.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
)

const (
	sessionKeyPrefix = "session:"
	userIndexPrefix  = "user_sessions:"
)

type redisStore struct {
	client *redis.Client
	// indexTTL bounds how long the per-user token index may outlive its
	// sessions; set it to the longest session TTL in use.
	indexTTL time.Duration
}

// NewRedisStore creates a redis-backed session repository.
func NewRedisStore(client *redis.Client, indexTTL time.Duration) repositories.SessionRepository {
	return &redisStore{client: client, indexTTL: indexTTL}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func userIndexKey(userID string) string {
	return userIndexPrefix + userID
}

func (s *redisStore) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.Token), data, ttl)
	pipe.SAdd(ctx, userIndexKey(session.UserID), session.Token)
	pipe.Expire(ctx, userIndexKey(session.UserID), s.indexTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	return &session, nil
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	// Look the session up first so the user index stays consistent.
	session, err := s.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userIndexKey(session.UserID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *redisStore) DeleteByUser(ctx context.Context, userID string) error {
	tokens, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("listing user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, userIndexKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}
