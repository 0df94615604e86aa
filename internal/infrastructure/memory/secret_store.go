package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bookme/auth-service/internal/domain"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// SecretStore is an in-memory otp.SecretStore with lazy TTL expiry.
// Used as the dev fallback when Redis is unavailable, and by unit tests.
type SecretStore struct {
	mu   sync.Mutex
	data map[string]entry

	// injectable clock for tests
	now func() time.Time
}

func NewSecretStore() *SecretStore {
	return &SecretStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *SecretStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return domain.ErrMissingField("key")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SecretStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, domain.ErrMissingField("key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.data, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *SecretStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrMissingField("key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *SecretStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}
