package auth

import (
	"context"
	"strings"

	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/logger"
)

// Register creates an unverified account and dispatches an OTP to the email
// address. The account cannot log in until the OTP is verified.
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" {
		return "", domain.ErrMissingField("username")
	}
	if email == "" {
		return "", domain.ErrMissingField("email")
	}
	if password == "" {
		return "", domain.ErrMissingField("password")
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.ErrUsernameAlreadyExists()
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.ErrEmailAlreadyExists()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}

	created, err := s.users.Create(ctx, domain.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Role:          string(domain.RoleCustomer),
		EmailVerified: false,
	})
	if err != nil {
		return "", err
	}

	code, err := s.otp.GenerateAndStore(ctx, created.Email)
	if err != nil {
		return "", err
	}

	s.notify("otp_issued", func(ctx context.Context) error {
		return s.pub.PublishOtpIssued(ctx, OtpIssuedEvent{
			Email:      created.Email,
			Code:       code,
			TTLSeconds: int64(s.otp.TTL().Seconds()),
		})
	})

	logger.Logger.Info().
		Int64("user_id", created.ID).
		Str("username", created.Username).
		Msg("user registered")

	return MsgRegistered, nil
}
