package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentra/internal/domain"
	"sentra/pkg/platform/sentinel"
)

const sessionKeyPrefix = "session:"

// RedisStore shares session state across PDP instances. Redis expiry handles
// TTL eviction; revocation rewrites the record in place (keeping the TTL) so
// the flag is visible cluster-wide before Revoke returns.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create stores the session with its remaining lifetime as the key TTL, plus
// a small grace window so introspection can still report "expired" rather
// than "not found" shortly after expiry.
func (s *RedisStore) Create(ctx context.Context, session *domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt) + time.Minute
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired: %w", session.ID, sentinel.ErrInvalidState)
	}
	ok, err := s.client.SetNX(ctx, sessionKey(session.ID), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads a session by ID.
func (s *RedisStore) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Revoke sets the revoked timestamp and rewrites the record keeping its TTL.
// The WATCH/MULTI transaction makes the read-modify-write atomic: a racing
// writer aborts the transaction and the retry observes its result, so the
// first revocation timestamp sticks and a concurrent rewrite cannot
// resurrect an unrevoked copy.
func (s *RedisStore) Revoke(ctx context.Context, id string, at time.Time) error {
	key := sessionKey(id)
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		var session domain.Session
		if err := json.Unmarshal(raw, &session); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if session.RevokedAt != nil {
			return nil
		}
		session.RevokedAt = &at
		payload, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return fmt.Errorf("persist revocation: %w", err)
		}
		return nil
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("persist revocation: %w", redis.TxFailedErr)
}

// ListActive scans the session keyspace and returns live sessions. SCAN keeps
// this safe against large keyspaces at the cost of a weakly consistent
// snapshot, which is acceptable for the re-validation sweep.
func (s *RedisStore) ListActive(ctx context.Context) ([]*domain.Session, error) {
	now := time.Now()
	var out []*domain.Session

	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", iter.Val(), err)
		}
		var session domain.Session
		if err := json.Unmarshal(raw, &session); err != nil {
			continue
		}
		if session.Live(now) {
			out = append(out, &session)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return out, nil
}

// ActiveCount returns the number of live sessions.
func (s *RedisStore) ActiveCount(ctx context.Context) (int, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}
