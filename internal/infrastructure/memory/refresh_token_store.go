package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookme/auth-service/internal/domain"
)

// RefreshTokenStore is an in-memory auth.RefreshTokenStore.
// The mutex stands in for the transaction the Postgres implementation uses:
// revoke-all and insert happen under one critical section.
type RefreshTokenStore struct {
	mu      sync.Mutex
	nextID  int64
	byToken map[string]domain.RefreshToken
	ttl     time.Duration

	now func() time.Time
}

func NewRefreshTokenStore(ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RefreshTokenStore{
		nextID:  1,
		byToken: make(map[string]domain.RefreshToken),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *RefreshTokenStore) Issue(ctx context.Context, userID int64) (domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tok, rt := range s.byToken {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			s.byToken[tok] = rt
		}
	}

	rt := domain.RefreshToken{
		ID:        s.nextID,
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
		CreatedAt: s.now(),
	}
	s.nextID++
	s.byToken[rt.Token] = rt
	return rt, nil
}

func (s *RefreshTokenStore) Verify(ctx context.Context, token string) (domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.byToken[token]
	if !ok || rt.Revoked {
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}
	if rt.Expired(s.now()) {
		delete(s.byToken, token)
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}
	return rt, nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.byToken[token]
	if !ok {
		return domain.ErrTokenInvalid()
	}
	rt.Revoked = true
	s.byToken[token] = rt
	return nil
}

func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tok, rt := range s.byToken {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			s.byToken[tok] = rt
		}
	}
	return nil
}

func (s *RefreshTokenStore) DeleteByUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tok, rt := range s.byToken {
		if rt.UserID == userID {
			delete(s.byToken, tok)
		}
	}
	return nil
}

func (s *RefreshTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for tok, rt := range s.byToken {
		if rt.Expired(s.now()) {
			delete(s.byToken, tok)
			n++
		}
	}
	return n, nil
}

// LiveTokens reports the non-revoked, non-expired tokens for a user.
// Test helper for asserting the single-active-token invariant.
func (s *RefreshTokenStore) LiveTokens(userID int64) []domain.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.RefreshToken
	for _, rt := range s.byToken {
		if rt.UserID == userID && !rt.Revoked && !rt.Expired(s.now()) {
			out = append(out, rt)
		}
	}
	return out
}
