package auth

import (
	"context"
	"strings"

	"github.com/bookme/auth-service/internal/domain"
)

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token itself is NOT rotated here: the same string stays valid
// until its own expiry, an explicit logout, or a subsequent login.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return AuthResult{}, domain.ErrTokenInvalid()
	}

	rt, err := s.tokens.Verify(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, err
	}

	u, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			// Owner is gone; the session is dead.
			return AuthResult{}, domain.ErrTokenInvalid()
		}
		// Anything else is a lookup failure, not a verdict on the token.
		return AuthResult{}, err
	}

	access, err := s.signer.SignAccessToken(u.Username, u.Role, s.accessTTL)
	if err != nil {
		return AuthResult{}, domain.ErrTokenSignFailed(err)
	}

	return AuthResult{
		User: u,
		Tokens: AuthTokens{
			AccessToken:  access,
			RefreshToken: refreshToken,
			TokenType:    tokenTypeValue,
			ExpiresIn:    int64(s.accessTTL.Seconds()),
		},
	}, nil
}
