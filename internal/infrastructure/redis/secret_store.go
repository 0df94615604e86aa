package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bookme/auth-service/internal/domain"
)

// SecretStore implements otp.SecretStore on Redis.
// TTL enforcement and per-key atomicity come from Redis itself; there is no
// caller-side expiry bookkeeping. A missing key means "absent", while a
// connectivity failure surfaces as redis_unavailable so callers never confuse
// the two.
type SecretStore struct {
	rdb *goredis.Client
}

func NewSecretStore(c *Client) *SecretStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &SecretStore{rdb: rdb}
}

func (s *SecretStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrMissingField("key")
	}
	if s.rdb == nil {
		return errors.New("redis secret store not configured")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}

	// overwrite is fine: a new pending secret supersedes the old one
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *SecretStore) Get(ctx context.Context, key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, domain.ErrMissingField("key")
	}
	if s.rdb == nil {
		return "", false, errors.New("redis secret store not configured")
	}

	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, domain.ErrRedisUnavailable(err)
	}
	return v, true, nil
}

func (s *SecretStore) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrMissingField("key")
	}
	if s.rdb == nil {
		return errors.New("redis secret store not configured")
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *SecretStore) Exists(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, domain.ErrMissingField("key")
	}
	if s.rdb == nil {
		return false, errors.New("redis secret store not configured")
	}

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, domain.ErrRedisUnavailable(err)
	}
	return n > 0, nil
}
