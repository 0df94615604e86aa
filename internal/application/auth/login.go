package auth

import (
	"context"
	"strings"

	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/logger"
)

// Login authenticates credentials and issues tokens.
// IMPORTANT: unknown usernames and wrong passwords both surface as
// invalid_credentials to avoid user enumeration. An unverified account is
// reported as account_disabled only after the password matched, so the
// verification state leaks to no one who doesn't hold the credentials.
func (s *Service) Login(ctx context.Context, username, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return AuthResult{}, domain.ErrInvalidCredentials()
		}
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		logger.Logger.Warn().Str("username", username).Msg("failed login attempt")
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	if !u.EmailVerified {
		return AuthResult{}, domain.ErrAccountDisabled()
	}

	toks, err := s.issueTokens(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	logger.Logger.Info().
		Int64("user_id", u.ID).
		Str("username", u.Username).
		Msg("user logged in")

	return AuthResult{User: u, Tokens: toks}, nil
}
