package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStore persists sessions as JSON strings with a TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore stores keys under prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + tokenKey(token)
}

// Save writes s with SET ... EX ttl.
func (r *RedisStore) Save(ctx context.Context, s Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get reads token's session.
func (r *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	return r.get(ctx, r.key(token))
}

func (r *RedisStore) get(ctx context.Context, key string) (Session, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Delete removes token's session.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List scans every key under the prefix. Keys that expire mid-scan are skipped.
func (r *RedisStore) List(ctx context.Context) ([]Session, error) {
	var (
		out    []Session
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}
		for _, key := range keys {
			s, getErr := r.get(ctx, key)
			if errors.Is(getErr, ErrSessionNotFound) {
				continue
			}
			if getErr != nil {
				return nil, getErr
			}
			out = append(out, s)
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}
