package otp

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/bookme/auth-service/internal/domain"
)

const keyPrefix = "otp:"

/*
SecretStore
-----------
Expiring key-value store holding pending OTP codes.
TTL is enforced by the store itself; absence from the store IS expiry.
Get must distinguish "absent" (ok=false) from a store failure (err != nil).
*/
type SecretStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Manager generates, stores, verifies and invalidates one-time codes.
// One pending code per email: a new code overwrites the previous one
// because the store key is reused.
type Manager struct {
	store  SecretStore
	length int
	ttl    time.Duration
}

func NewManager(store SecretStore, length int, ttl time.Duration) *Manager {
	if length < 4 {
		length = 6
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{store: store, length: length, ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// GenerateAndStore produces a fresh code for the address and stores it with
// the configured TTL, superseding any prior pending code.
func (m *Manager) GenerateAndStore(ctx context.Context, email string) (string, error) {
	code, err := m.generate()
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	if err := m.store.Set(ctx, keyPrefix+email, code, m.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the submitted code against the stored one and consumes it on
// success. A mismatched code is left intact so the user can retry within the
// TTL window.
func (m *Manager) Verify(ctx context.Context, email, submitted string) error {
	stored, ok, err := m.store.Get(ctx, keyPrefix+email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrOtpExpired()
	}
	if stored != submitted {
		return domain.ErrInvalidOtp()
	}
	return m.store.Delete(ctx, keyPrefix+email)
}

// Delete removes any pending code for the address. Idempotent.
func (m *Manager) Delete(ctx context.Context, email string) error {
	return m.store.Delete(ctx, keyPrefix+email)
}

// Exists reports whether a pending code exists without consuming it.
func (m *Manager) Exists(ctx context.Context, email string) (bool, error) {
	return m.store.Exists(ctx, keyPrefix+email)
}

// generate draws each digit independently and uniformly from crypto/rand.
func (m *Manager) generate() (string, error) {
	digits := make([]byte, m.length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
