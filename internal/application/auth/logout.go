package auth

import (
	"context"
	"strings"

	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/logger"
)

// Logout revokes the refresh token. The row is kept (revoked, not deleted)
// so a later replay still fails verification.
func (s *Service) Logout(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", domain.ErrTokenInvalid()
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return "", err
	}

	logger.Logger.Info().Msg("user logged out")
	return MsgLoggedOut, nil
}
