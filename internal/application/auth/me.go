package auth

import (
	"context"

	"github.com/bookme/auth-service/internal/domain"
)

// Me returns the account summary for an authenticated subject.
func (s *Service) Me(ctx context.Context, username string) (domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}
